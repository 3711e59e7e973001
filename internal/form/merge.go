package form

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Answers 以字段 ID 为键的答案表
type Answers map[string]interface{}

// Decode 从 JSON 解析答案,空输入返回空表
func Decode(raw []byte) (Answers, error) {
	a := Answers{}
	if len(raw) == 0 || string(raw) == "null" {
		return a, nil
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	return a, nil
}

// Encode 序列化答案
func (a Answers) Encode() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// Flatten 将嵌套的学生答案提升到顶层
// 顶层已有的值优先,结果中不再包含嵌套键
func Flatten(a Answers) Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		if k == NestedStudentKey {
			continue
		}
		out[k] = v
	}
	for k, v := range nestedMap(a[NestedStudentKey]) {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

func nestedMap(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		return m
	case Answers:
		return m
	}
	return nil
}

// Merge 按字段归属合并答案
//
// author 只能覆盖归属于自己或双方共有的字段,其他字段即使出现在 incoming 中也被忽略;
// 模板中不存在的字段被丢弃;existing 中未被提及的值(包括模板已删除的孤立字段)保留。
// 合并后按学生字段重建嵌套键,供审计读取。
func Merge(existing, incoming Answers, schema *Schema, author Owner) Answers {
	merged := Flatten(existing)
	in := Flatten(incoming)

	for _, f := range schema.Fields {
		if !f.WritableBy(author) {
			continue
		}
		if v, ok := in[f.ID]; ok {
			merged[f.ID] = v
		}
	}

	nested := make(map[string]interface{})
	for _, f := range schema.Fields {
		if f.Owner != OwnerStudent {
			continue
		}
		if v, ok := merged[f.ID]; ok {
			nested[f.ID] = v
		}
	}
	if len(nested) > 0 {
		merged[NestedStudentKey] = nested
	}
	return merged
}

// MissingRequired 返回 author 负责但尚未填写的必填字段
func MissingRequired(a Answers, schema *Schema, author Owner) []string {
	flat := Flatten(a)
	var missing []string
	for _, f := range schema.Fields {
		if !f.Required || !f.WritableBy(author) {
			continue
		}
		if isEmpty(flat[f.ID], f.Type) {
			missing = append(missing, f.ID)
		}
	}
	return missing
}

func isEmpty(v interface{}, t InputType) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case bool:
		return t == InputCheckbox && !val
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	}
	return false
}

// ProjectedField 渲染用的字段及其当前值
type ProjectedField struct {
	Field
	Value interface{} `json:"value"`
}

// Project 按模板顺序投影答案,孤立字段不出现在结果中
func Project(a Answers, schema *Schema) []ProjectedField {
	flat := Flatten(a)
	out := make([]ProjectedField, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		out = append(out, ProjectedField{Field: f, Value: flat[f.ID]})
	}
	return out
}
