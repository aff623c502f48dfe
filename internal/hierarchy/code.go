// Package hierarchy содержит чистые проверки организационного дерева:
// коды подразделений, порядок уровней, обход потомков и готовность
// структуры к подтверждению. Пакет не обращается к хранилищу.
package hierarchy

import (
	"regexp"
	"strings"
)

// Максимальная длина кода, выведенного из названия
const MaxDerivedCodeLength = 20

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]+`)
	explicitCode    = regexp.MustCompile(`^[A-Z0-9]{2,4}$`)
)

// DeriveCode строит код из названия: верхний регистр, каждая серия
// не буквенно-цифровых символов заменяется на "_", длина не больше 20.
func DeriveCode(name string) string {
	code := nonAlphanumeric.ReplaceAllString(strings.ToUpper(strings.TrimSpace(name)), "_")
	if len(code) > MaxDerivedCodeLength {
		code = code[:MaxDerivedCodeLength]
	}
	return code
}

// Derivable сообщает, есть ли в выведенном коде хотя бы одна буква или цифра
func Derivable(code string) bool {
	return strings.Trim(code, "_") != ""
}

// ValidCode проверяет явно переданный код
func ValidCode(code string) bool {
	return explicitCode.MatchString(code)
}
