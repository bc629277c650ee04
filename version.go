package myrulesiot

import "fmt"

var Version = "0.1.0"

func VersionJSON() []byte {
	return []byte(fmt.Sprintf(`{"version": "%s"}`, Version))
}
