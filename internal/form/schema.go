package form

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/mautops/practica-gin/internal/apperror"
)

// Owner 字段归属方,决定哪一方可以填写该字段
type Owner string

const (
	OwnerStudent Owner = "alumno"
	OwnerCompany Owner = "empresa"
	OwnerBoth    Owner = "ambos"
)

// InputType 字段输入类型
type InputType string

const (
	InputText      InputType = "text"
	InputTextarea  InputType = "textarea"
	InputSelect    InputType = "select"
	InputDate      InputType = "date"
	InputNumber    InputType = "number"
	InputCheckbox  InputType = "checkbox"
	InputEmail     InputType = "email"
	InputSignature InputType = "signature"
	InputSchedule  InputType = "schedule"
)

// 内置表单类型
const (
	KindPostulation   = "postulacion"
	KindLogbook       = "bitacora"
	KindEvaluationPR1 = "evaluacion_pr1"
	KindEvaluationPR2 = "evaluacion_pr2"
)

// NestedStudentKey 历史上用于单独保存学生答案的嵌套键
const NestedStudentKey = "respuestasAlumno"

var kindPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// validate 的实例可并发复用
var validate = validator.New()

// Field 表单字段定义
type Field struct {
	ID       string    `json:"id" yaml:"id" validate:"required,max=64"`
	Label    string    `json:"label" yaml:"label" validate:"required,max=255"`
	Type     InputType `json:"type" yaml:"type" validate:"required,oneof=text textarea select date number checkbox email signature schedule"`
	Required bool      `json:"required" yaml:"required"`
	Owner    Owner     `json:"owner,omitempty" yaml:"owner,omitempty" validate:"omitempty,oneof=alumno empresa ambos"`
	Options  []string  `json:"options,omitempty" yaml:"options,omitempty"`
}

// WritableBy 判断 author 是否可以写入该字段
// 未指定归属的字段视为双方共有
func (f Field) WritableBy(author Owner) bool {
	return f.Owner == "" || f.Owner == OwnerBoth || f.Owner == author
}

// Schema 有序的表单结构
type Schema struct {
	Kind   string  `json:"kind" validate:"required"`
	Fields []Field `json:"fields" validate:"dive"`
}

// NewSchema 创建表单结构
func NewSchema(kind string, fields []Field) *Schema {
	return &Schema{Kind: kind, Fields: fields}
}

// Field 按 ID 查找字段
func (s *Schema) Field(id string) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Validate 校验表单结构
func (s *Schema) Validate() error {
	if err := ValidateKind(s.Kind); err != nil {
		return err
	}
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace())
			}
			return apperror.Validation("invalid form fields", fields...)
		}
		return fmt.Errorf("failed to validate schema: %w", err)
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.ID == NestedStudentKey {
			return apperror.Validation(fmt.Sprintf("field id %q is reserved", f.ID), f.ID)
		}
		if _, dup := seen[f.ID]; dup {
			return apperror.Validation(fmt.Sprintf("duplicate field id %q", f.ID), f.ID)
		}
		seen[f.ID] = struct{}{}
		if f.Type == InputSelect && len(f.Options) == 0 {
			return apperror.Validation(fmt.Sprintf("select field %q needs options", f.ID), f.ID)
		}
	}
	return nil
}

// ValidateKind 校验表单类型标识
func ValidateKind(kind string) error {
	if kind == "" || len(kind) > 64 || !kindPattern.MatchString(kind) {
		return apperror.Validation("template kind must match ^[a-z0-9_]+$", "kind")
	}
	return nil
}

// IsProtectedKind 受保护的表单类型不可删除
func IsProtectedKind(kind string) bool {
	switch kind {
	case KindPostulation, KindLogbook, KindEvaluationPR1, KindEvaluationPR2:
		return true
	}
	return false
}

// EvaluationKind 根据实习级别选择评估表单
func EvaluationKind(level int) string {
	return fmt.Sprintf("evaluacion_pr%d", level)
}
