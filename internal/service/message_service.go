package service

import (
	"context"
	"encoding/json"
	"eportfolio_grading/internal/config"
	"eportfolio_grading/internal/lang"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/pkg/logger"
	"eportfolio_grading/pkg/monitoring"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Message 一条发给用户的通知
type Message struct {
	Component        string      `json:"component"`
	Name             string      `json:"name"`
	UserFrom         *model.User `json:"userfrom"`
	UserTo           *model.User `json:"userto"`
	Subject          string      `json:"subject"`
	FullMessage      string      `json:"fullmessage"`
	FullMessageHTML  string      `json:"fullmessagehtml"`
	SmallMessage     string      `json:"smallmessage"`
	ContextURL       string      `json:"contexturl"`
	ContextURLName   string      `json:"contexturlname"`
	NotificationFlag bool        `json:"notification"`
	CourseID         uint        `json:"courseid"`
}

// Messenger 异步投递通知，失败不影响调用方
type Messenger interface {
	Send(ctx context.Context, msg Message)
}

var _ Messenger = (*MessageService)(nil)

// MessageProvider 具体的投递通道
type MessageProvider interface {
	Name() string
	Deliver(ctx context.Context, msg Message) error
}

// LogMessageProvider 只写日志，开发环境默认使用
type LogMessageProvider struct{}

func (LogMessageProvider) Name() string { return "log" }

func (LogMessageProvider) Deliver(ctx context.Context, msg Message) error {
	logger.Log.Info("Message delivered",
		zap.Uint("to", msg.UserTo.ID),
		zap.String("subject", msg.Subject),
		zap.String("contexturl", msg.ContextURL),
		zap.String("body", msg.FullMessage))
	return nil
}

// RedisMessageProvider 发布到 Redis 频道，由宿主的消息处理器消费
type RedisMessageProvider struct {
	Client  *redis.Client
	Channel string
}

func (p *RedisMessageProvider) Name() string { return "redis" }

func (p *RedisMessageProvider) Deliver(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.Client.Publish(ctx, p.Channel, payload).Err()
}

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridMessageProvider 以邮件形式投递
type SendgridMessageProvider struct {
	Key  string
	From *sgmail.Email
}

func NewSendgridMessageProvider(cfg *config.MessagingConfig) *SendgridMessageProvider {
	return &SendgridMessageProvider{
		Key:  cfg.SendgridAPIKey,
		From: sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
	}
}

func (p *SendgridMessageProvider) Name() string { return "sendgrid" }

func (p *SendgridMessageProvider) prepare(msg Message) *sgmail.SGMailV3 {
	personalization := sgmail.NewPersonalization()
	personalization.Subject = msg.Subject
	personalization.AddTos(sgmail.NewEmail(msg.UserTo.FullName(), msg.UserTo.Email))

	m := sgmail.NewV3Mail()
	m.SetFrom(p.From)
	m.AddPersonalizations(personalization)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.FullMessage),
		sgmail.NewContent("text/html", msg.FullMessageHTML),
	)
	return m
}

func (p *SendgridMessageProvider) Deliver(ctx context.Context, msg Message) error {
	if msg.UserTo == nil || msg.UserTo.Email == "" {
		return fmt.Errorf("recipient has no email address")
	}
	req := sendgrid.GetRequest(p.Key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(p.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// NewMessageProvider 按配置选择投递通道
func NewMessageProvider(cfg *config.MessagingConfig, rdb *redis.Client) MessageProvider {
	switch cfg.Provider {
	case "redis":
		if rdb != nil {
			return &RedisMessageProvider{Client: rdb, Channel: cfg.RedisChannel}
		}
		logger.Log.Warn("Redis unavailable, messages will only be logged")
	case "sendgrid":
		return NewSendgridMessageProvider(cfg)
	}
	return LogMessageProvider{}
}

// MessageService 组装并异步发送评分通知
type MessageService struct {
	Provider MessageProvider
	BaseURL  string
	SiteName string
	From     string
	wg       sync.WaitGroup
}

func NewMessageService(provider MessageProvider, cfg *config.Config) *MessageService {
	return &MessageService{
		Provider: provider,
		BaseURL:  strings.TrimRight(cfg.Server.BaseURL, "/"),
		SiteName: cfg.Plugin.SiteName,
		From:     cfg.Messaging.FromEmail,
	}
}

// Send 在后台投递，请求上下文结束后仍会完成
func (s *MessageService) Send(ctx context.Context, msg Message) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.Provider.Deliver(context.Background(), msg)
		result := "ok"
		if err != nil {
			result = "error"
			logger.Log.Error("Failed to deliver message",
				zap.String("provider", s.Provider.Name()),
				zap.Uint("to", msg.UserTo.ID),
				zap.Error(err))
		}
		monitoring.MessagesTotal.WithLabelValues(s.Provider.Name(), result).Inc()
	}()
}

// Wait 等待已提交的消息投递完成，关闭服务时调用
func (s *MessageService) Wait() {
	s.wg.Wait()
}

// Notice 通知所需的上下文
type Notice struct {
	Actor      *model.User
	Recipient  *model.User
	Filename   string
	CourseID   uint
	CourseName string
	CMID       uint
	ItemID     uint
}

// ViewURL 评分查看页地址
func (s *MessageService) ViewURL(cmID, itemID, userID uint) string {
	q := url.Values{}
	q.Set("id", fmt.Sprint(cmID))
	q.Set("action", "view")
	q.Set("itemid", fmt.Sprint(itemID))
	q.Set("userid", fmt.Sprint(userID))
	return s.BaseURL + "/mod/eportfolio/view?" + q.Encode()
}

// OverviewURL 活动概览页地址
func (s *MessageService) OverviewURL(cmID uint) string {
	return fmt.Sprintf("%s/mod/eportfolio/view?id=%d", s.BaseURL, cmID)
}

// ComposeGrading 评分完成通知
func (s *MessageService) ComposeGrading(n Notice) Message {
	viewURL := s.ViewURL(n.CMID, n.ItemID, n.Recipient.ID)
	return s.compose(n, "message:subject", "message:emailmessage", "message:smallmessage", viewURL)
}

// ComposeWithdrawn 提交被撤回、允许重新提交的通知
func (s *MessageService) ComposeWithdrawn(n Notice) Message {
	return s.compose(n, "message:withdrawn:subject", "message:withdrawn", "message:withdrawn", s.OverviewURL(n.CMID))
}

func (s *MessageService) compose(n Notice, subjectKey, bodyKey, smallKey, contextURL string) Message {
	l := n.Recipient.Lang
	if l == "" {
		l = lang.Default
	}
	args := map[string]string{
		"filename":   html.EscapeString(n.Filename),
		"coursename": html.EscapeString(n.CourseName),
		"userfrom":   html.EscapeString(n.Actor.FullName()),
		"viewurl":    html.EscapeString(contextURL),
	}
	htmlBody := lang.Get(l, bodyKey, args)
	return Message{
		Component:        model.Component,
		Name:             "grading",
		UserFrom:         model.NoReplyUser(s.SiteName, s.From),
		UserTo:           n.Recipient,
		Subject:          lang.Get(l, subjectKey, nil),
		FullMessage:      HTMLToText(htmlBody),
		FullMessageHTML:  htmlBody,
		SmallMessage:     lang.Get(l, smallKey, args),
		ContextURL:       contextURL,
		ContextURLName:   lang.Get(l, "message:contexturlname", nil),
		NotificationFlag: true,
		CourseID:         n.CourseID,
	}
}

// HTMLToText 去除标签，<br> 与块级结束标签转换为换行
func HTMLToText(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF 或非法输入都在此结束
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "br":
				b.WriteString("\n")
			case "p", "div":
				if tt == html.EndTagToken {
					b.WriteString("\n")
				}
			}
		}
	}
}
