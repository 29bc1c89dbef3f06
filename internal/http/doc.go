// Package http exposes the room scheduler over a JSON API.
//
// Routes:
//
//	GET    /healthz
//	POST   /login                 body {email, password}; token in body, X-Session-Token and cookie
//	POST   /logout
//	GET    /me
//	GET    /rooms                 POST /rooms
//	GET    /rooms/{id}            PUT, DELETE /rooms/{id}       (admin, sec)
//	GET    /bookings?date=&room_id=&q=
//	POST   /bookings              PUT /bookings/{id} creates or replaces
//	GET    /bookings/{id}         DELETE /bookings/{id}
//	GET    /calendar?date=YYYY-MM-DD
//	GET    /audit                                               (admin, sec)
//	GET    /users                 POST /users, PUT, DELETE /users/{id}  (admin)
//	GET    /export/bookings.ics   GET /export/bookings.xlsx
//	GET    /events                websocket stream of change events
//
// Every route except /healthz, /login and /logout requires a session token sent as a
// bearer header or the session_token cookie. Error bodies carry a pt-BR message; a booking
// conflict answers 409 with the id of the booking already holding the slot.
package http
