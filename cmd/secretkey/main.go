// Command secretkey prints random values suitable for SECRET_KEY.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Dan9191/travel-blog/internal/utils"
)

func main() {
	count := flag.Int("n", 1, "number of keys to print")
	length := flag.Int("length", utils.SecretKeyLength, "key length")
	flag.Parse()

	for i := 0; i < *count; i++ {
		key, err := utils.GenerateSecretKey(*length)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(key)
	}
}
