// Package ean valida códigos EAN/GTIN (EAN-8, EAN-13, GTIN-14) con el dígito de control
// módulo 10 de GS1. Un código con forma de EAN y checksum incorrecto nunca se trata como SKU.
package ean

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"

	"github.com/jhoicas/inventario-scan/internal/domain"
)

// Kind clasificación de un código leído por el escáner o ingresado a mano.
type Kind int

const (
	KindSKU Kind = iota
	KindEAN
)

func (k Kind) String() string {
	if k == KindEAN {
		return "ean"
	}
	return "sku"
}

// Normalize pliega dígitos de ancho completo a ASCII y quita espacios y guiones.
// Algunos escáneres en modo teclado envían dígitos de ancho completo según el layout del equipo.
func Normalize(code string) string {
	folded := width.Narrow.String(code)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '-':
			return -1
		}
		return r
	}, folded)
}

// IsEAN indica si el código normalizado es numérico con 8, 13 o 14 dígitos.
func IsEAN(code string) bool {
	cleaned := Normalize(code)
	switch len(cleaned) {
	case 8, 13, 14:
	default:
		return false
	}
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] < '0' || cleaned[i] > '9' {
			return false
		}
	}
	return true
}

// Validate calcula el checksum GS1: multiplicadores alternos 3/1 sobre los dígitos sin el de control,
// empezando en 3 si la longitud total es par y en 1 si es impar.
func Validate(code string) bool {
	if !IsEAN(code) {
		return false
	}
	cleaned := Normalize(code)
	check := int(cleaned[len(cleaned)-1] - '0')
	return checkDigit(cleaned[:len(cleaned)-1], len(cleaned)) == check
}

func checkDigit(body string, totalLen int) int {
	multiplier := 1
	if totalLen%2 == 0 {
		multiplier = 3
	}
	var sum int
	for i := 0; i < len(body); i++ {
		sum += int(body[i]-'0') * multiplier
		if multiplier == 3 {
			multiplier = 1
		} else {
			multiplier = 3
		}
	}
	return (10 - sum%10) % 10
}

// Check clasifica un código decodificado. Devuelve domain.ErrInvalidEAN si tiene forma de EAN
// pero el dígito de control no coincide.
func Check(code string) (Kind, error) {
	if !IsEAN(code) {
		return KindSKU, nil
	}
	if !Validate(code) {
		return KindEAN, fmt.Errorf("%w para %s", domain.ErrInvalidEAN, Normalize(code))
	}
	return KindEAN, nil
}
