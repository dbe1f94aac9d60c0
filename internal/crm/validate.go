package crm

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("oportunidade_status", func(fl validator.FieldLevel) bool {
		_, ok := ParseStatus(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("licitacao_status", func(fl validator.FieldLevel) bool {
		_, ok := ParseLicitacaoStatus(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("cnpj", func(fl validator.FieldLevel) bool {
		return len(onlyDigits(fl.Field().String())) == 14
	})
	return v
}

// validateInput converte erros do validator em ValidationError.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Message: "dados inválidos", Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = reason(fe)
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "obrigatório"
	case "email":
		return "email inválido"
	case "url":
		return "url inválida"
	case "max":
		return "máximo de " + fe.Param() + " caracteres"
	case "len":
		return "deve ter " + fe.Param() + " caracteres"
	case "oneof":
		return "deve ser um de: " + fe.Param()
	case "oportunidade_status", "licitacao_status":
		return "status inválido"
	case "cnpj":
		return "cnpj deve ter 14 dígitos"
	case "gte", "lte":
		return "fora do intervalo permitido"
	}
	return "inválido"
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
