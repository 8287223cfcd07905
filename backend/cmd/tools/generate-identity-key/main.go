package main

import (
	"fmt"
	"log"

	"github.com/itchan-dev/kanaal/shared/utils"
)

func main() {
	key, err := utils.GenerateKey()
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}

	fmt.Println("=================================================")
	fmt.Println("  Identity Gateway Signing Key (HMAC-SHA256)")
	fmt.Println("=================================================")
	fmt.Println()
	fmt.Println("Generated key (hex):")
	fmt.Println(key)
	fmt.Println()
	fmt.Println("Share it with the identity gateway and add it to config/private.yaml:")
	fmt.Printf("identity_key: \"%s\"\n", key)
	fmt.Println()
	fmt.Println("Run again for the gateway_key, the two must differ.")
	fmt.Println("Never commit these keys to version control!")
	fmt.Println("=================================================")
}
