package utils

import (
	"fmt"

	"github.com/rs/zerolog"
)

// ToZeroLogArray logs each element through its String method.
func ToZeroLogArray[T fmt.Stringer](arr []T) *zerolog.Array {
	ret := zerolog.Arr()

	for _, elem := range arr {
		ret = ret.Str(elem.String())
	}

	return ret
}
