package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bgremover/internal/config"
	"bgremover/internal/model"
	"bgremover/internal/remover"
	"bgremover/internal/repository"
	"bgremover/internal/service"
)

const (
	cbRemoveBG = "remove_bg"
	cbProfile  = "profile"
	cbHelp     = "help"

	outputFileName  = "removed_background.png"
	downloadTimeout = 30 * time.Second
)

// Bot wires the Telegram transport to the user store and the photo pipeline.
type Bot struct {
	api         *tgbotapi.BotAPI
	userRepo    *repository.UserRepository
	photoSvc    *service.PhotoService
	statsSvc    *service.StatsService
	messages    config.Messages
	adminChatID int64
	downloader  *resty.Client
	log         *zap.Logger
	wg          sync.WaitGroup
}

func New(token string, userRepo *repository.UserRepository, photoSvc *service.PhotoService, statsSvc *service.StatsService, cfg *config.Config, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info("bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:         api,
		userRepo:    userRepo,
		photoSvc:    photoSvc,
		statsSvc:    statsSvc,
		messages:    cfg.Messages,
		adminChatID: cfg.AdminChatID,
		downloader:  resty.New().SetTimeout(downloadTimeout),
		log:         log,
	}, nil
}

// Start begins polling updates until ctx is cancelled. Photo handling runs
// off the polling loop so long removals never block other conversations.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error("handle callback", zap.Error(err))
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error("handle message", zap.Error(err))
			}
		}
	}

	b.wg.Wait()
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if len(msg.Photo) > 0 {
		return b.handlePhoto(ctx, msg)
	}

	if msg.IsCommand() {
		b.log.Info("command",
			zap.Int64("user_id", msg.From.ID),
			zap.String("command", msg.Command()))
		return b.handleCommand(ctx, msg)
	}

	// Plain text outside the photo flow is ignored.
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendMenuText(msg.Chat.ID, b.messages.Help)
	case "profile":
		return b.handleProfile(ctx, msg)
	default:
		return nil
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	return b.sendMenuText(msg.Chat.ID, b.messages.Welcome)
}

func (b *Bot) handleProfile(ctx context.Context, msg *tgbotapi.Message) error {
	profile, err := b.userRepo.Profile(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return b.sendMenuText(msg.Chat.ID, b.profileText(profile))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}

	if err := b.ensureUser(ctx, cb.From); err != nil {
		return err
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	switch cb.Data {
	case cbRemoveBG:
		return b.editMenuText(chatID, messageID, b.messages.SendPhoto)
	case cbProfile:
		profile, err := b.userRepo.Profile(ctx, cb.From.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return b.editMenuText(chatID, messageID, b.profileText(profile))
	case cbHelp:
		return b.editMenuText(chatID, messageID, b.messages.Help)
	default:
		return nil
	}
}

// handlePhoto sends the transient placeholder and dispatches the blocking
// pipeline to a worker goroutine.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	placeholder, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, b.messages.Processing))
	if err != nil {
		return fmt.Errorf("send placeholder: %w", err)
	}

	// Telegram sends photo sizes smallest first; take the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.processPhoto(ctx, chatID, userID, fileID, placeholder.MessageID)
	}()

	return nil
}

// processPhoto runs download -> remove -> reply -> increment. Every failure
// collapses into a single placeholder edit; the counter moves only after the
// document went out.
func (b *Bot) processPhoto(ctx context.Context, chatID, userID int64, fileID string, placeholderID int) {
	data, err := b.downloadPhoto(ctx, fileID)
	if err != nil {
		b.log.Error("download photo", zap.Int64("user_id", userID), zap.Error(err))
		b.editPlain(chatID, placeholderID, b.messages.Error)
		return
	}

	output, err := b.photoSvc.Process(ctx, data)
	if err != nil {
		b.log.Error("remove background", zap.Int64("user_id", userID), zap.Error(err))
		b.editPlain(chatID, placeholderID, b.errorText(err))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  outputFileName,
		Bytes: output,
	})
	doc.Caption = b.messages.Success
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("send document", zap.Int64("user_id", userID), zap.Error(err))
		b.editPlain(chatID, placeholderID, b.messages.Error)
		return
	}

	if err := b.photoSvc.ConfirmDelivered(ctx, userID); err != nil {
		b.log.Error("confirm delivered", zap.Int64("user_id", userID), zap.Error(err))
	}

	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, placeholderID)); err != nil {
		b.log.Warn("delete placeholder", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (b *Bot) downloadPhoto(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}
	resp, err := b.downloader.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// errorText maps the failure kind to user-facing copy. Anything unclassified
// gets the generic text.
func (b *Bot) errorText(err error) string {
	var quotaErr *remover.QuotaError
	var netErr *remover.NetworkError
	switch {
	case errors.As(err, &quotaErr):
		return b.messages.QuotaError
	case errors.As(err, &netErr):
		return b.messages.NetworkError
	default:
		return b.messages.Error
	}
}

// SendUsageReport delivers the aggregate summary to the admin chat, or just
// logs it when no admin chat is configured.
func (b *Bot) SendUsageReport(ctx context.Context) error {
	summary, err := b.statsSvc.Summary(ctx)
	if err != nil {
		return err
	}
	if b.adminChatID == 0 {
		b.log.Info("usage report", zap.String("summary", summary))
		return nil
	}
	return b.sendMenuText(b.adminChatID, summary)
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) error {
	return b.userRepo.Upsert(ctx, from.ID, from.UserName, from.FirstName)
}

func (b *Bot) sendMenuText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) editMenuText(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, mainMenuKeyboard())
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) editPlain(chatID int64, messageID int, text string) {
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.log.Warn("edit placeholder", zap.Error(err))
	}
}

func (b *Bot) profileText(p *model.Profile) string {
	return fmt.Sprintf(
		b.messages.Profile,
		p.UserID,
		escape(p.FirstName),
		formatUsername(p.Username),
		p.PhotosProcessed,
		p.CreatedAt.Format("2006-01-02"),
	)
}

// formatUsername prefixes real handles with @ but leaves the placeholder as
// is.
func formatUsername(username string) string {
	if username == model.Placeholder {
		return username
	}
	return "@" + escape(username)
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📷 Удалить фон", cbRemoveBG),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Мой профиль", cbProfile),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Помощь", cbHelp),
		),
	)
}

func escape(s string) string {
	return html.EscapeString(s)
}
