package service

import (
	"bytes"
	"embed"
	"eportfolio_grading/internal/lang"
	"eportfolio_grading/internal/util"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// 页面数据，T 为当前语言的取词函数

type OverviewPage struct {
	T        lang.Translator
	Title    string
	Notice   string
	Success  bool
	Overview *Overview
	// 按提交人排序时下一次点击的方向
	NextDir string
}

type GradingPage struct {
	T         lang.Translator
	Detail    *GradeDetail
	Grade     string
	Feedback  string
	ActionURL string
	BackURL   string
	Error     string
}

type ViewPage struct {
	T       lang.Translator
	Detail  *GradeDetail
	FileURL string
	BackURL string
}

type ConfirmPage struct {
	T         lang.Translator
	Prompt    *WithdrawalPrompt
	ActionURL string
	CancelURL string
	Notice    string
}

type NoticePage struct {
	T       lang.Translator
	Message string
	Success bool
	BackURL string
}

// RenderService 渲染概览、评分表单、评分查看与撤回确认页面
type RenderService struct {
	tmpl *template.Template
}

func NewRenderService() (*RenderService, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"date": util.FormatDate,
		// 语言包中的提示含有 <br> 等标记，占位符的值按 HTML 转义后代入
		"markupf": markupf,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &RenderService{tmpl: tmpl}, nil
}

func markupf(s string, pairs ...string) template.HTML {
	args := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		args[pairs[i]] = template.HTMLEscapeString(pairs[i+1])
	}
	return template.HTML(lang.Replace(s, args))
}

// Template 供 gin.Engine.SetHTMLTemplate 使用
func (s *RenderService) Template() *template.Template {
	return s.tmpl
}

func (s *RenderService) Render(w io.Writer, name string, data interface{}) error {
	return s.tmpl.ExecuteTemplate(w, name, data)
}

func (s *RenderService) RenderString(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.Render(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
