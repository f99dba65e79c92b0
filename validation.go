package formstate

import "strings"

// ValidationError is one failed rule.
type ValidationError struct {
	Path    string `json:"path,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of running validators against a value. The
// zero value is a success.
type ValidationResult struct {
	Errors []ValidationError `json:"errors,omitempty"`
}

// SuccessResult returns a result with no errors.
func SuccessResult() ValidationResult {
	return ValidationResult{}
}

// FailureResult returns a result holding a single error.
func FailureResult(rule, message string) ValidationResult {
	return ValidationResult{Errors: []ValidationError{{Rule: rule, Message: message}}}
}

// Valid reports whether the result holds no errors.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Equal compares two results error by error.
func (r ValidationResult) Equal(other ValidationResult) bool {
	if len(r.Errors) != len(other.Errors) {
		return false
	}
	for i := range r.Errors {
		if r.Errors[i] != other.Errors[i] {
			return false
		}
	}
	return true
}

func (r ValidationResult) String() string {
	if r.Valid() {
		return "valid"
	}
	messages := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		messages = append(messages, err.Message)
	}
	return strings.Join(messages, "; ")
}

// MergeResults concatenates the errors of every result in order.
func MergeResults(results ...ValidationResult) ValidationResult {
	var merged ValidationResult
	for _, result := range results {
		merged.Errors = append(merged.Errors, result.Errors...)
	}
	return merged
}

// Validator checks a value in the context of the state that owns it.
type Validator func(value any, state State) ValidationResult

// FieldValidatorFactory binds a Validator to a field store. It runs once, when
// the store is built.
type FieldValidatorFactory func(state *FieldState) Validator

// GroupValidatorFactory binds a Validator to a group store. It runs once, when
// the store is built.
type GroupValidatorFactory func(state *GroupState) Validator

func constantFieldFactory(v Validator) FieldValidatorFactory {
	return func(*FieldState) Validator { return v }
}

func constantGroupFactory(v Validator) GroupValidatorFactory {
	return func(*GroupState) Validator { return v }
}

func runValidators(validators []Validator, value any, state State) ValidationResult {
	results := make([]ValidationResult, 0, len(validators))
	for _, validator := range validators {
		if validator == nil {
			continue
		}
		results = append(results, validator(value, state))
	}
	return MergeResults(results...)
}
