package persistence

// DefaultRooms returns the catalog written on first load of an empty store.
func DefaultRooms() []Room {
	return []Room{
		{ID: "1", Name: "Sala Copacabana", Location: "1º Andar", Capacity: 10, Notes: "Possui projetor e quadro branco", Color: "blue"},
		{ID: "2", Name: "Sala Ipanema", Location: "1º Andar", Capacity: 6, Notes: "TV para conferência", Color: "green"},
		{ID: "3", Name: "Auditório Leblon", Location: "Térreo", Capacity: 50, Notes: "Sistema de som integrado", Color: "purple"},
	}
}
