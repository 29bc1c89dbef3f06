package main

import (
	"github.com/fatih/color"
)

var (
	colorHeader = color.New(color.Bold)
	colorOK     = color.New(color.FgGreen)
	colorMuted  = color.New(color.FgWhite, color.Faint)
	colorError  = color.New(color.FgRed, color.Bold)
)

// roomPalette approximates the room hex colors with terminal colors, in seed order.
var roomPalette = []*color.Color{
	color.New(color.FgBlue),
	color.New(color.FgGreen),
	color.New(color.FgMagenta),
	color.New(color.FgCyan),
	color.New(color.FgYellow),
	color.New(color.FgRed),
}

func (a *App) setColor() {
	if a.noColor {
		color.NoColor = true
	}
}
