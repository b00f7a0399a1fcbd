// cmd/stratadmin/main.go
package main

func main() {
	Execute()
}
