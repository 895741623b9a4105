package main

import "contentpay_backend/internal/app"

func main() {
	app.Run()
}
