package services

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/hongminglow/budget-be/internal/models"
)

// Validator runs struct-tag validation and turns failures into the
// messages shown to API clients.
type Validator struct {
	validate *validator.Validate
	messages map[string]string
}

// NewValidator builds the shared validator with the messages for every
// input struct in this package.
func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails on an empty tag or nil func.
	_ = validate.RegisterValidation("txtype", func(fl validator.FieldLevel) bool {
		return models.TransactionType(fl.Field().String()).Valid()
	})
	return &Validator{
		validate: validate,
		messages: map[string]string{
			"RegisterInput.Email.required":            "Email is required",
			"RegisterInput.Email.email":               "Please provide a valid email address",
			"RegisterInput.Password.required":         "Password is required",
			"RegisterInput.Password.min":              "Password must be at least 6 characters long",
			"LoginInput.Email.required":               "Email is required",
			"LoginInput.Email.email":                  "Please provide a valid email address",
			"LoginInput.Password.required":            "Password is required",
			"ChangePasswordInput.Current.required":    "Current password is required",
			"ChangePasswordInput.New.required":        "New password is required",
			"ChangePasswordInput.New.min":             "Password must be at least 6 characters long",
			"ChangePasswordInput.Confirm.required":    "Password confirmation is required",
			"ChangePasswordInput.Confirm.eqfield":     "Password confirmation must match new password",
			"CreateBudgetInput.Name.required":         "Budget name is required",
			"CreateBudgetInput.Name.max":              "Budget name cannot exceed 255 characters",
			"AppendTransactionInput.Amount.required":  "Amount is required",
			"AppendTransactionInput.Type.required":    "Transaction type is required",
			"AppendTransactionInput.Type.txtype":      "Transaction type must be either income or expense",
			"AppendTransactionInput.Comment.required": "Comment is required",
			"AppendTransactionInput.Comment.max":      "Comment cannot exceed 255 characters",
		},
	}
}

// Struct validates s. A nil result means s passed; otherwise the result is
// a *ValidationError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range fieldErrs {
		msg, ok := v.messages[fe.StructNamespace()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		out.Messages = append(out.Messages, msg)
	}
	return out
}
