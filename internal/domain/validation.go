package domain

// Fields that carry validation errors on the subscription form
const (
	FieldEmail   = "email"
	FieldConsent = "consent"
)

// ValidatedFields lists the fields cleared before every submission, in display order
var ValidatedFields = []string{FieldEmail, FieldConsent}

// Messages shown next to the form fields
const (
	MsgEmailRequired  = "メールアドレスを入力してください"
	MsgEmailInvalid   = "有効なメールアドレスを入力してください"
	MsgConsentMissing = "プライバシーポリシーに同意してください"
	MsgSubmitFailed   = "エラーが発生しました。しばらくしてからもう一度お試しください。"
	MsgSubmitBusy     = "送信中..."
)

// FieldResult is Valid when Message is empty
type FieldResult struct {
	Field   string `json:"field"`
	Message string `json:"message,omitempty"`
}

// Valid reports whether the field passed validation
func (r FieldResult) Valid() bool {
	return r.Message == ""
}

// ValidationResult holds one FieldResult per validated field
type ValidationResult struct {
	Fields []FieldResult `json:"fields"`
}

// HasError reports whether any field is invalid
func (v ValidationResult) HasError() bool {
	for _, f := range v.Fields {
		if !f.Valid() {
			return true
		}
	}
	return false
}

// Errors returns only the invalid fields
func (v ValidationResult) Errors() []FieldResult {
	var out []FieldResult
	for _, f := range v.Fields {
		if !f.Valid() {
			out = append(out, f)
		}
	}
	return out
}

// Field returns the result for one field
func (v ValidationResult) Field(name string) (FieldResult, bool) {
	for _, f := range v.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldResult{}, false
}
