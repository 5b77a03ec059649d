package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"soori-welfare/common/logger"
	"soori-welfare/internal/client"
	"soori-welfare/internal/config"
	"soori-welfare/internal/evaluator"
	"soori-welfare/internal/models"
	"soori-welfare/internal/poller"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "soori-cli",
	Short:         "soori-cli - 복지 리포트 생성/조회 도구",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate <userId>",
	Short: "Generate a welfare report and wait until it is ready",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

var statusCmd = &cobra.Command{
	Use:   "status <taskId>",
	Short: "Show the status of a report task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var reportCmd = &cobra.Command{
	Use:   "report <userId>",
	Short: "Show the latest welfare report with dual-axis metrics",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

var exportCmd = &cobra.Command{
	Use:   "export <userId>",
	Short: "Download the welfare report as an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Evaluate dual-axis metrics locally from raw stats",
	Args:  cobra.NoArgs,
	RunE:  runClassify,
}

var (
	syncFlag   bool
	noWaitFlag bool
	jsonFlag   bool
	outputFlag string

	classifyUser   models.UserStats
	classifyTrend  string
	classifyDevice models.DeviceStats
)

func init() {
	generateCmd.Flags().BoolVar(&syncFlag, "sync", false, "Use the synchronous endpoint instead of the task queue")
	generateCmd.Flags().BoolVar(&noWaitFlag, "no-wait", false, "Print the task id and exit without polling")
	reportCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the raw JSON response")
	exportCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file (default welfare-report-<userId>.xlsx)")

	f := classifyCmd.Flags()
	f.Float64Var(&classifyUser.WeeklyKm, "weekly-km", 0, "Distance travelled in the last 7 days")
	f.Float64Var(&classifyUser.PreviousWeeklyKm, "previous-km", 0, "Distance travelled in the 7 days before")
	f.StringVar(&classifyTrend, "trend", string(models.TrendStable), "increase | stable | decrease")
	f.IntVar(&classifyUser.ActiveDays, "active-days", 0, "Days with at least one trip")
	f.IntVar(&classifyDevice.RecentRepairs, "repairs", 0, "Repairs in the last 30 days")
	f.IntVar(&classifyDevice.RecentSelfChecks, "self-checks", 0, "Self checks in the last 30 days")
	f.IntVar(&classifyDevice.DaysSinceLastCheck, "days-since-check", models.DefaultDaysSinceLastCheck, "Days since the last repair or self check")
	f.Float64Var(&classifyDevice.EstimatedCumulativeKm, "cumulative-km", 0, "Estimated cumulative distance")

	rootCmd.AddCommand(generateCmd, statusCmd, reportCmd, exportCmd, classifyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliEnv 每个子命令共用的配置、日志与 API 客户端
type cliEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	api    *client.Client
}

func newCLIEnv() (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.NewLogger(cfg.Log.Level, "console", "soori-cli")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	api := client.New(client.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, log)
	return &cliEnv{cfg: cfg, logger: log, api: api}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runGenerate(cmd *cobra.Command, args []string) error {
	env, err := newCLIEnv()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()
	userID := args[0]

	if syncFlag {
		if _, err := env.api.GenerateSync(ctx, userID); err != nil {
			return fmt.Errorf("리포트 생성 실패: %w", err)
		}
		fmt.Fprintln(out, "리포트가 생성되었습니다.")
		return printReport(ctx, out, env.api, userID)
	}

	res, err := env.api.TriggerAsync(ctx, userID)
	if err != nil {
		return fmt.Errorf("리포트 생성 요청 실패: %w", err)
	}

	switch res.Kind {
	case client.TriggerCompleted:
		fmt.Fprintln(out, "리포트가 생성되었습니다.")
		return printReport(ctx, out, env.api, userID)
	case client.TriggerDuplicate:
		if res.TaskID == "" {
			fmt.Fprintln(out, "이미 리포트를 생성하고 있습니다. 잠시 후 다시 확인해주세요.")
			return nil
		}
		fmt.Fprintf(out, "이미 생성 중인 작업이 있습니다 (task %s).\n", res.TaskID)
	case client.TriggerAccepted:
		fmt.Fprintf(out, "리포트 생성이 시작되었습니다 (task %s, 예상 %d초).\n", res.TaskID, res.EstimatedTime)
	}

	if noWaitFlag {
		fmt.Fprintln(out, res.TaskID)
		return nil
	}

	task, message, err := waitForTask(ctx, out, env, res.TaskID)
	if err != nil && task == nil {
		return err
	}
	if task.Status == models.TaskFailed {
		return fmt.Errorf("리포트 생성 실패: %s", message)
	}

	fmt.Fprintln(out, "리포트가 생성되었습니다.")
	return printReport(ctx, out, env.api, userID)
}

// waitForTask 轮询到终态，返回终态任务与失败信息
func waitForTask(ctx context.Context, out io.Writer, env *cliEnv, taskID string) (*models.ReportTask, string, error) {
	p := poller.New(env.api, env.cfg.API.PollInterval, env.logger)

	var lastStatus models.TaskStatus
	var failure string
	p.OnProgress = func(task *models.ReportTask) {
		if task.Status != lastStatus {
			fmt.Fprintf(out, "  상태: %s\n", task.Status)
			lastStatus = task.Status
		}
	}
	p.OnFailed = func(task *models.ReportTask, message string) {
		failure = message
	}

	h := p.Start(ctx, taskID)
	defer h.Stop()

	task, err := h.Wait(ctx)
	return task, failure, err
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := newCLIEnv()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	task, err := env.api.GetTaskStatus(commandContext(cmd), args[0])
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("작업을 찾을 수 없습니다: %s", args[0])
		}
		return err
	}
	return writeJSON(cmd.OutOrStdout(), task)
}

func runReport(cmd *cobra.Command, args []string) error {
	env, err := newCLIEnv()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	ctx := commandContext(cmd)
	if jsonFlag {
		view, err := env.api.GetReport(ctx, args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), view)
	}
	return printReport(ctx, cmd.OutOrStdout(), env.api, args[0])
}

func runExport(cmd *cobra.Command, args []string) error {
	env, err := newCLIEnv()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	data, err := env.api.DownloadExport(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	path := outputFlag
	if path == "" {
		path = fmt.Sprintf("welfare-report-%s.xlsx", args[0])
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", path, len(data))
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	us := classifyUser
	us.Trend = models.TrendDirection(classifyTrend)
	return writeJSON(cmd.OutOrStdout(), evaluator.ComputeDualAxisMetrics(us, classifyDevice))
}

func printReport(ctx context.Context, out io.Writer, api *client.Client, userID string) error {
	view, err := api.GetReport(ctx, userID)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("리포트가 없습니다: %s", userID)
		}
		return err
	}
	fmt.Fprint(out, formatReport(view))
	return nil
}

func formatReport(view *models.ReportView) string {
	var b strings.Builder
	u := view.DualAxis.UserMobility
	d := view.DualAxis.DeviceCondition

	fmt.Fprintf(&b, "== %s 복지 리포트 (%s) ==\n", view.UserID, view.CreatedAt.Format("2006-01-02"))
	if view.IsFallback {
		b.WriteString("(규칙 기반 리포트)\n")
	}
	fmt.Fprintf(&b, "요약: %s\n", view.Summary)
	fmt.Fprintf(&b, "이동성: %s · 주간 %.1fkm · %s\n", u.StatusLabel, evaluator.RoundTenth(u.WeeklyKm), view.TrendDisplay)
	fmt.Fprintf(&b, "  %s\n", u.Evidence)
	fmt.Fprintf(&b, "기기 상태: %s등급 (%s)\n", d.Grade, d.GradeLabel)
	fmt.Fprintf(&b, "  %s\n", d.Evidence)
	fmt.Fprintf(&b, "  %s\n", d.Recommendation)

	writeServices(&b, "이동 지원", view.CategorizedServices.ForMobility)
	writeServices(&b, "복지 서비스", view.CategorizedServices.ForWelfare)
	return b.String()
}

func writeServices(b *strings.Builder, title string, services []models.ServiceRecommendation) {
	if len(services) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, s := range services {
		fmt.Fprintf(b, "  - %s: %s\n", s.Name, s.Reason)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
