package models

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validate runs struct-tag validation on any model or request DTO.
func Validate(s interface{}) error {
	return validate.Struct(s)
}
