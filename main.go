// Public domain.

package main

import "github.com/soniakeys/discount/internal/ddprog"

func main() {
	ddprog.Main()
}
