package main

import "royaltyhub/services/royaltyd"

func main() {
	royaltyd.Run()
}
