package lang

import (
	"strings"

	"golang.org/x/text/language"
)

const Default = "en"

var supported = []language.Tag{
	language.English,
	language.German,
}

var matcher = language.NewMatcher(supported)

var packs = map[string]map[string]string{
	"en": english,
	"de": german,
}

// Match 选择界面语言：用户偏好优先，其次 Accept-Language
func Match(preferred, acceptLanguage string) string {
	var tags []language.Tag
	if preferred != "" {
		if t, err := language.Parse(preferred); err == nil {
			tags = append(tags, t)
		}
	}
	if acceptLanguage != "" {
		if parsed, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
			tags = append(tags, parsed...)
		}
	}
	if len(tags) == 0 {
		return Default
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	base, _ := supported[index].Base()
	return base.String()
}

// Get 取字符串并替换 {name} 占位符；缺失时回退英文，仍缺失则返回 [[key]]
func Get(lang, key string, args map[string]string) string {
	s, ok := packs[lang][key]
	if !ok {
		s, ok = english[key]
	}
	if !ok {
		return "[[" + key + "]]"
	}
	return Replace(s, args)
}

// Replace 替换 {name} 占位符，值原样写入
func Replace(s string, args map[string]string) string {
	if len(args) == 0 {
		return s
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Translator 绑定语言的取词函数，模板中通过 call 使用
type Translator func(key string) string

func For(lang string) Translator {
	return func(key string) string {
		return Get(lang, key, nil)
	}
}
