package api

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var phoneRe = regexp.MustCompile(`^\+?[0-9]{6,20}$`)

// validateMaxBytes в отличии от тэга max который проверяет длину рун, - проверят длину байт в поле.
func validateMaxBytes(fl validator.FieldLevel) bool {
	param := fl.Param() // получаем значение из тега
	maxBytes, err := strconv.Atoi(param)
	if err != nil {
		return false
	}

	// нужно убедится что значение поля - строка.
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return len([]byte(str)) <= maxBytes
}

// validatePhone номер из цифр, допускается ведущий плюс.
func validatePhone(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return phoneRe.MatchString(str)
}

// validateMoney неотрицательная сумма не точнее минимальной денежной единицы. decimal.Decimal приходит
// сюда строкой через decimalTypeFunc.
func validateMoney(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	v, err := decimal.NewFromString(str)
	if err != nil {
		return false
	}
	return !v.IsNegative() && v.Equal(v.Truncate(domain.CurrencyScale)) && v.LessThan(domain.MaxAmount)
}

// decimalTypeFunc позволяет вешать теги валидатора на поля decimal.Decimal.
func decimalTypeFunc(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("validator registration: unexpected engine %T", binding.Validator.Engine())
	}
	v.RegisterCustomTypeFunc(decimalTypeFunc, decimal.Decimal{})
	// в ошибках валидации поля называются так же, как в json.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	validations := map[string]validator.Func{
		"max_bytes": validateMaxBytes,
		"phone":     validatePhone,
		"money":     validateMoney,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("validator registration: %s", err.Error())
		}
	}
	return nil
}
