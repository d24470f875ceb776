package params

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// prefixes 工程单位前缀（区分大小写：m 为毫，M 为兆）
var prefixes = map[rune]float64{
	'f': 1e-15,
	'p': 1e-12,
	'n': 1e-9,
	'u': 1e-6,
	'µ': 1e-6,
	'μ': 1e-6,
	'm': 1e-3,
	'k': 1e3,
	'K': 1e3,
	'M': 1e6,
	'G': 1e9,
}

// Value 配置中的数值，可带工程前缀与单位，如 "180u"、"85mΩ"、"40kHz"
type Value string

// IsZero 是否未设置
func (value Value) IsZero() bool { return strings.TrimSpace(string(value)) == "" }

// Float64 解析数值
func (value Value) Float64() (float64, error) {
	str := strings.TrimSpace(string(value))
	if str == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidValue)
	}
	// 数字部分
	end := numberPrefix(str)
	if end == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, str)
	}
	val, err := strconv.ParseFloat(str[:end], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, str)
	}
	rest := str[end:]
	if rest == "" {
		return val, nil
	}
	// 不完整的指数，如 "1e"
	if rest[0] == 'e' || rest[0] == 'E' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, str)
	}
	// SPICE 写法 meg，不区分大小写
	if len(rest) >= 3 && strings.EqualFold(rest[:3], "meg") && (len(rest) == 3 || isUnit(rest[3:])) {
		return val * 1e6, nil
	}
	// 前缀
	r, size := utf8.DecodeRuneInString(rest)
	if scale, ok := prefixes[r]; ok && (size == len(rest) || isUnit(rest[size:])) {
		return val * scale, nil
	}
	// 仅单位
	if isUnit(rest) {
		return val, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidValue, str)
}

// ParseFloat64 解析数值，未设置时返回默认值
func (value Value) ParseFloat64(defaultValue float64) (float64, error) {
	if value.IsZero() {
		return defaultValue, nil
	}
	return value.Float64()
}

// UnmarshalYAML 接受数字或字符串标量
func (value *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected scalar", ErrInvalidValue, node.Line)
	}
	*value = Value(node.Value)
	return nil
}

// numberPrefix 返回数字部分长度
func numberPrefix(str string) int {
	end := 0
	for i, char := range str {
		switch {
		case char >= '0' && char <= '9', char == '.':
		case char == '+' || char == '-':
			if i != 0 && str[i-1] != 'e' && str[i-1] != 'E' {
				return end
			}
		case char == 'e' || char == 'E':
			// 指数后必须跟数字或符号
			if i+1 >= len(str) || !strings.ContainsRune("0123456789+-", rune(str[i+1])) {
				return end
			}
		default:
			return end
		}
		end = i + utf8.RuneLen(char)
	}
	return end
}

func isUnit(str string) bool {
	if str == "" {
		return false
	}
	for _, char := range str {
		if !unicode.IsLetter(char) {
			return false
		}
	}
	return true
}
