//go:build tinygo && baremetal

package main

import (
	"thinkos/app"
	"thinkos/hal"
)

func main() {
	app.Run(hal.New())
}
