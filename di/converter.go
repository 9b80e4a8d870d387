package di

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// TypeConverter 把绑定为字符串的常量转换为目标类型的值。
//
// 解析一个没有显式绑定的 Key 时，如果存在同名的字符串常量绑定，
// 且有转换器声明支持目标类型，引擎会合成一个 converted-constant 绑定。
type TypeConverter interface {
	// Matches 报告是否支持转换到目标类型。
	Matches(target reflect.Type) bool
	// Convert 执行转换。
	Convert(value string, target reflect.Type) (any, error)
}

// converterFunc 便捷实现。
type converterFunc struct {
	matches func(reflect.Type) bool
	convert func(string, reflect.Type) (any, error)
}

func (c converterFunc) Matches(target reflect.Type) bool {
	return c.matches(target)
}

func (c converterFunc) Convert(value string, target reflect.Type) (any, error) {
	return c.convert(value, target)
}

// NewTypeConverter 从函数对创建 TypeConverter。
func NewTypeConverter(matches func(reflect.Type) bool, convert func(string, reflect.Type) (any, error)) TypeConverter {
	return converterFunc{matches: matches, convert: convert}
}

var durationType = reflect.TypeOf(time.Duration(0))

// defaultConverters 内建转换器：有符号 / 无符号整数、浮点、布尔，
// 以及 time.Duration。注意 Duration 的底层类型是 int64，必须排在
// 整数转换器之前匹配。
func defaultConverters() []TypeConverter {
	return []TypeConverter{
		converterFunc{
			matches: func(t reflect.Type) bool { return t == durationType },
			convert: func(v string, t reflect.Type) (any, error) {
				return time.ParseDuration(v)
			},
		},
		converterFunc{
			matches: func(t reflect.Type) bool {
				switch t.Kind() {
				case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
					return t != durationType
				}
				return false
			},
			convert: func(v string, t reflect.Type) (any, error) {
				n, err := strconv.ParseInt(v, 10, t.Bits())
				if err != nil {
					return nil, err
				}
				out := reflect.New(t).Elem()
				out.SetInt(n)
				return out.Interface(), nil
			},
		},
		converterFunc{
			matches: func(t reflect.Type) bool {
				switch t.Kind() {
				case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
					return true
				}
				return false
			},
			convert: func(v string, t reflect.Type) (any, error) {
				n, err := strconv.ParseUint(v, 10, t.Bits())
				if err != nil {
					return nil, err
				}
				out := reflect.New(t).Elem()
				out.SetUint(n)
				return out.Interface(), nil
			},
		},
		converterFunc{
			matches: func(t reflect.Type) bool {
				return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
			},
			convert: func(v string, t reflect.Type) (any, error) {
				f, err := strconv.ParseFloat(v, t.Bits())
				if err != nil {
					return nil, err
				}
				out := reflect.New(t).Elem()
				out.SetFloat(f)
				return out.Interface(), nil
			},
		},
		converterFunc{
			matches: func(t reflect.Type) bool { return t.Kind() == reflect.Bool },
			convert: func(v string, t reflect.Type) (any, error) {
				return strconv.ParseBool(v)
			},
		},
	}
}

// convertConstant 应用转换器并校验结果类型。
func convertConstant(c TypeConverter, value string, target reflect.Type) (any, error) {
	out, err := c.Convert(value, target)
	if err != nil {
		return nil, err
	}
	outType := reflect.TypeOf(out)
	if outType != target {
		if outType != nil && outType.ConvertibleTo(target) {
			return reflect.ValueOf(out).Convert(target).Interface(), nil
		}
		return nil, fmt.Errorf("converter produced %T, want %v", out, target)
	}
	return out, nil
}
