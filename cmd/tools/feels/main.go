package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/feels/backend/internal/config"
	"github.com/zhouzirui/feels/backend/internal/logging"
	"github.com/zhouzirui/feels/backend/internal/observability"
	"github.com/zhouzirui/feels/backend/internal/service/conversation"
	"github.com/zhouzirui/feels/backend/internal/service/processor"
)

func main() {
	text := flag.String("text", "", "待处理文本，留空则从标准输入读取")
	backend := flag.String("backend", "", "情绪后端: onnx、llm 或 lexicon，默认使用配置")
	maxTokens := flag.Int("max-tokens", 0, "单个分块的最大 token 数，默认使用配置")
	timeout := flag.Duration("timeout", 30*time.Second, "处理超时时间")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fail("配置加载失败: %v", err)
	}
	if *backend != "" {
		cfg.Pipeline.EmotionBackend = *backend
	}
	if *maxTokens > 0 {
		cfg.Pipeline.ChunkMaxTokens = *maxTokens
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level, Format: "console"})
	if err != nil {
		fail("日志初始化失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	input := *text
	if input == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			fail("读取标准输入失败: %v", err)
		}
		input = string(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var chatModel model.ChatModel
	if cfg.Pipeline.EmotionBackend == config.BackendLLM {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			logger.Warn("chat model unavailable", zap.Error(err))
		}
	}

	proc, closeFn := processor.Bootstrap(ctx, cfg.Pipeline, chatModel, observability.NewMetrics(cfg.Metrics.Namespace, nil), logger)
	defer func() { _ = closeFn() }()

	segments := conversation.Segments(proc.Process(ctx, input))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(segments); err != nil {
		fail("输出失败: %v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
