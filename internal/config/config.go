package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StrategyRemote = "remote"
	StrategyLocal  = "local"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken   string
	DatabasePath    string
	RemoverStrategy string
	RemoveBGAPIKey  string
	RemoveBGURL     string
	RemoveTimeout   time.Duration
	WorkerPoolSize  int
	ReportInterval  time.Duration
	AdminChatID     int64
	LogLevel        string
	Messages        Messages
}

// Messages holds user-facing copy. Defaults match the production texts but
// every entry can be overridden via config.yaml or environment.
type Messages struct {
	Welcome      string
	Help         string
	SendPhoto    string
	Processing   string
	Success      string
	Error        string
	QuotaError   string
	NetworkError string
	Profile      string
}

// Load reads configuration from an optional .env file, an optional
// config.yaml and environment variables, in increasing priority.
func Load() (Config, error) {
	// Missing .env is fine, settings may come from the process environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		TelegramToken:   strings.TrimSpace(v.GetString("telegram_token")),
		DatabasePath:    strings.TrimSpace(v.GetString("database_path")),
		RemoverStrategy: strings.ToLower(strings.TrimSpace(v.GetString("remover_strategy"))),
		RemoveBGAPIKey:  strings.TrimSpace(v.GetString("removebg_api_key")),
		RemoveBGURL:     strings.TrimSpace(v.GetString("removebg_url")),
		RemoveTimeout:   time.Duration(v.GetInt("remove_timeout_seconds")) * time.Second,
		WorkerPoolSize:  v.GetInt("worker_pool_size"),
		ReportInterval:  time.Duration(v.GetInt("report_interval_hours")) * time.Hour,
		AdminChatID:     v.GetInt64("admin_chat_id"),
		LogLevel:        strings.TrimSpace(v.GetString("log_level")),
		Messages: Messages{
			Welcome:      v.GetString("messages.welcome"),
			Help:         v.GetString("messages.help"),
			SendPhoto:    v.GetString("messages.send_photo"),
			Processing:   v.GetString("messages.processing"),
			Success:      v.GetString("messages.success"),
			Error:        v.GetString("messages.error"),
			QuotaError:   v.GetString("messages.quota_error"),
			NetworkError: v.GetString("messages.network_error"),
			Profile:      v.GetString("messages.profile"),
		},
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if cfg.RemoverStrategy != StrategyRemote && cfg.RemoverStrategy != StrategyLocal {
		return cfg, fmt.Errorf("REMOVER_STRATEGY must be %q or %q, got %q", StrategyRemote, StrategyLocal, cfg.RemoverStrategy)
	}
	if cfg.RemoverStrategy == StrategyRemote && cfg.RemoveBGAPIKey == "" {
		return cfg, fmt.Errorf("REMOVEBG_API_KEY is required for the remote strategy")
	}
	if cfg.WorkerPoolSize < 1 {
		return cfg, fmt.Errorf("WORKER_POOL_SIZE must be positive, got %d", cfg.WorkerPoolSize)
	}
	if cfg.RemoveTimeout <= 0 {
		return cfg, fmt.Errorf("REMOVE_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_path", "bgremover.db")
	v.SetDefault("remover_strategy", StrategyRemote)
	v.SetDefault("removebg_url", "https://api.remove.bg/v1.0/removebg")
	v.SetDefault("remove_timeout_seconds", 60)
	v.SetDefault("worker_pool_size", 2)
	v.SetDefault("report_interval_hours", 0)
	v.SetDefault("admin_chat_id", 0)
	v.SetDefault("log_level", "info")

	v.SetDefault("messages.welcome",
		"👋 Привет! Я помогу убрать фон с фотографии.\n\n"+
			"Просто пришли мне фото, и я верну его в PNG без фона. "+
			"Кнопки ниже помогут посмотреть профиль и подсказки.")
	v.SetDefault("messages.help",
		"ℹ️ <b>Как пользоваться ботом</b>\n"+
			"• Пришли фотографию — я удалю фон и верну файл PNG\n"+
			"• 👤 Мой профиль — статистика обработанных фото\n"+
			"• /start — приветствие и главное меню\n"+
			"• /help — это сообщение")
	v.SetDefault("messages.send_photo", "📷 Пришли фотографию, с которой нужно убрать фон.")
	v.SetDefault("messages.processing", "⏳ Обрабатываю фото, подожди немного...")
	v.SetDefault("messages.success", "✅ Готово! Фон удалён.")
	v.SetDefault("messages.error", "😔 Не получилось обработать фото. Попробуй ещё раз позже.")
	v.SetDefault("messages.quota_error",
		"🚫 Лимит обработок исчерпан. Подожди немного или попробуй завтра.")
	v.SetDefault("messages.network_error",
		"🌐 Сервис обработки недоступен. Проверь соединение и попробуй ещё раз.")
	v.SetDefault("messages.profile",
		"👤 <b>Твой профиль</b>\n\n"+
			"🆔 ID: <code>%d</code>\n"+
			"📛 Имя: %s\n"+
			"🔗 Username: %s\n"+
			"🖼 Обработано фото: <b>%d</b>\n"+
			"📅 С нами с: %s")
}
