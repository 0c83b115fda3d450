package merkle

import "math/big"

func isLeft(key []byte, depth int, height int) bool {
	keyInt := new(big.Int).SetBytes(key)
	leftShifted := keyInt.Lsh(keyInt, uint(depth))
	rightShifted := leftShifted.Rsh(leftShifted, uint(height)-2)
	return rightShifted.Mod(rightShifted, big.NewInt(2)).Cmp(big.NewInt(0)) == 0
}
