package main

import "servimarket_backend/internal/app"

func main() {
	app.Run()
}
