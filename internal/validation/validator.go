package validation

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

// 结构体 tag 中使用的规则名
const (
	TagEmoji    = "emoji"
	TagMaxUTF16 = "max_utf16"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Register 向 validator 实例注册自定义规则（gin 的 binding 引擎也走这里）
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(TagEmoji, func(fl validator.FieldLevel) bool {
		return IsEmojiOnly(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation(TagMaxUTF16, func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			panic(fmt.Sprintf("validation: bad %s param %q", TagMaxUTF16, fl.Param()))
		}
		return UTF16Len(fl.Field().String()) <= limit
	})
}

// UTF16Len 按 UTF-16 码元计长度，BMP 以外的字符（大部分 emoji）占 2
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// Default 进程内共享的 validator，已注册全部自定义规则
func Default() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		if err := Register(instance); err != nil {
			panic(err)
		}
	})
	return instance
}

// FieldErrors 把 validator 错误转换为 字段名 -> 提示列表，字段名为结构体字段名首字母小写
func FieldErrors(err error) map[string][]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string][]string, len(ve))
	for _, fe := range ve {
		field := lowerFirst(fe.Field())
		out[field] = append(out[field], message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min":
		return fmt.Sprintf("Must contain at least %s character(s)", fe.Param())
	case "max", TagMaxUTF16:
		return fmt.Sprintf("Must contain at most %s character(s)", fe.Param())
	case TagEmoji:
		return "Only emojis are allowed"
	default:
		return fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
