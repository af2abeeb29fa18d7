package main

import "github.com/zhangyanwei699/PetIBM/cmd"

func main() {
	cmd.Execute()
}
