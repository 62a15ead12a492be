// Команда scorer проверяет текст по файлу ключевых слов без запуска бота.
//
//	scorer --keywords keywords.json "Free Nitro, claim your gift"
//	echo "..." | scorer --images 1
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"serotonyl.ru/antiscam-bot/internal/features/scoring"
)

func main() {
	if err := newApp(os.Stdout, os.Stdin).Run(os.Args); err != nil {
		log.WithError(err).Fatal("scorer")
	}
}

// newApp собирает CLI. Вывод и stdin подставляются, чтобы команду можно было проверить.
func newApp(out io.Writer, in io.Reader) *cli.App {
	return &cli.App{
		Name:  "scorer",
		Usage: "посчитать подозрительность текста",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "keywords",
				Aliases: []string{"k"},
				Value:   "keywords.json",
				Usage:   "файл ключевых слов (JSON или YAML)",
				EnvVars: []string{"KEYWORDS_FILE"},
			},
			&cli.Float64Flag{
				Name:    "image-suspiciousness",
				Value:   scoring.DefaultImageSuspiciousness,
				EnvVars: []string{"IMAGE_SUSPICIOUSNESS"},
			},
			&cli.Float64Flag{
				Name:    "threshold",
				Value:   scoring.DefaultSuspiciousnessThreshold,
				EnvVars: []string{"SUSPICIOUSNESS_THRESHOLD"},
			},
			&cli.IntFlag{
				Name:  "images",
				Usage: "сколько картинок приложено к сообщению",
			},
		},
		Writer: out,
		Action: func(cctx *cli.Context) error {
			return run(cctx, out, in)
		},
	}
}

func run(cctx *cli.Context, out io.Writer, in io.Reader) error {
	keywords, err := scoring.LoadKeywords(cctx.String("keywords"))
	if err != nil {
		return err
	}
	scorer := scoring.NewScorer(keywords, cctx.Float64("image-suspiciousness"), cctx.Float64("threshold"))

	attachments := make([]string, 0, cctx.Int("images"))
	for i := 0; i < cctx.Int("images"); i++ {
		attachments = append(attachments, "image/jpeg")
	}

	texts := cctx.Args().Slice()
	if len(texts) == 0 {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			texts = append(texts, sc.Text())
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("чтение stdin: %w", err)
		}
	}

	for _, text := range texts {
		score := scorer.Score(text, attachments)
		verdict := "not suspicious"
		if scorer.IsSuspicious(score) {
			verdict = "SUSPICIOUS"
		}
		fmt.Fprintf(out, "%.2f [%s] %s\n", score, verdict, text)
		if matches := scorer.Matches(text); len(matches) > 0 {
			fmt.Fprintf(out, "    matched: %s\n", strings.Join(matches, ", "))
		}
	}
	return nil
}
