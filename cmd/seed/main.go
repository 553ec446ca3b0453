package main

import (
	"context"
	"fmt"

	"github.com/Paddione/network-quiz/internal/config"
	"github.com/Paddione/network-quiz/internal/database"
	"github.com/Paddione/network-quiz/internal/logger"
)

// seedQuestion carries one question with its options; correct is the index
// of the right option.
type seedQuestion struct {
	question    string
	explanation string
	options     []string
	correct     int
}

type seedChapter struct {
	title     string
	questions []seedQuestion
}

type seedQuiz struct {
	title       string
	description string
	chapters    []seedChapter
}

var demoQuiz = seedQuiz{
	title:       "Grundlagen moderner Computernetze",
	description: "Einführungsquiz zu Computernetzen und dem Internet",
	chapters: []seedChapter{
		{
			title: "Kapitel 1: Einführung",
			questions: []seedQuestion{
				{
					question: "Was bedeutet der Begriff 'Informationsgesellschaft'?",
					options: []string{
						"Eine Gesellschaft, die ausschließlich digital kommuniziert",
						"Eine Gesellschaft, in der Informationstechnologien eine zentrale Rolle spielen",
						"Eine Gesellschaft ohne analoge Medien",
						"Eine Gesellschaft, die nur aus IT-Experten besteht",
					},
					correct:     1,
					explanation: "Die Informationsgesellschaft ist geprägt durch den umfassenden Einsatz von Informations- und Kommunikationstechnologien in allen Lebensbereichen.",
				},
				{
					question: "Was gehört zu den IuK-Technologien?",
					options: []string{
						"Nur Telefone und Computer",
						"Verarbeitung, Speicherung und Übertragung von Informationen",
						"Ausschließlich das Internet",
						"Nur Hardware-Komponenten",
					},
					correct:     1,
					explanation: "IuK-Technologien umfassen die Verarbeitung, Speicherung und Übertragung von Informationen.",
				},
				{
					question: "Was passiert bei einem Ausfall der IuK-Technologien?",
					options: []string{
						"Nichts Gravierendes",
						"Nur E-Mails funktionieren nicht",
						"Es kann zu katastrophalen Folgen kommen",
						"Nur Social Media ist betroffen",
					},
					correct:     2,
					explanation: "Bei einem Ausfall können katastrophale Folgen eintreten, wie der Blackout in Lübeck 2018 zeigte.",
				},
			},
		},
		{
			title: "Kapitel 2: Internet – das Netz der Netze",
			questions: []seedQuestion{
				{
					question: "Was ist das Internet laut FNC-Definition?",
					options: []string{
						"Ein lokales Netzwerk",
						"Ein globales Informationssystem basierend auf IP",
						"Nur das World Wide Web",
						"Ein soziales Netzwerk",
					},
					correct:     1,
					explanation: "Das Internet ist ein globales Informationssystem, das auf dem Internet Protocol (IP) basiert.",
				},
				{
					question: "Was ist ein Host?",
					options: []string{
						"Nur ein Server",
						"Ein Computer oder Gerät, das mit einem Netzwerk verbunden ist",
						"Ein Webserver",
						"Ein Programm zum Surfen im Internet",
					},
					correct:     1,
					explanation: "Ein Host ist ein Computer oder ein anderes Gerät, das mit einem Computernetz verbunden ist.",
				},
				{
					question: "Welche Organisation ist für die Internet-Standards verantwortlich?",
					options: []string{
						"Microsoft",
						"Google",
						"IETF (Internet Engineering Task Force)",
						"Apple",
					},
					correct:     2,
					explanation: "Die IETF entwickelt die herstellerunabhängigen Standards des Internets und veröffentlicht sie als RFCs.",
				},
				{
					question: "Was bedeutet Netzneutralität?",
					options: []string{
						"Alle Netzwerkkabel müssen gleich lang sein",
						"Gleichberechtigte Übertragung von Daten unabhängig von Inhalt und Sender",
						"Jeder muss das gleiche Internet-Abo haben",
						"Alle Router müssen gleich schnell sein",
					},
					correct:     1,
					explanation: "Netzneutralität bedeutet die neutrale, gleichberechtigte Übertragung von Daten im Internet.",
				},
			},
		},
	},
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var quizSetID int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO quiz_sets (title, description, is_active)
		 VALUES ($1, $2, TRUE)
		 RETURNING id`,
		demoQuiz.title, demoQuiz.description,
	).Scan(&quizSetID); err != nil {
		log.Fatal().Err(err).Msg("Failed to insert quiz set")
	}
	fmt.Printf("Created quiz set %q with ID %d\n", demoQuiz.title, quizSetID)

	for ci, chapter := range demoQuiz.chapters {
		var chapterID int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO chapters (quiz_set_id, title, sequence_number)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			quizSetID, chapter.title, ci+1,
		).Scan(&chapterID); err != nil {
			log.Fatal().Err(err).Msg("Failed to insert chapter")
		}

		for qi, q := range chapter.questions {
			var questionID int64
			if err := tx.QueryRow(ctx,
				`INSERT INTO questions (chapter_id, question_text, explanation, type, sequence_number)
				 VALUES ($1, $2, $3, 'multiple', $4)
				 RETURNING id`,
				chapterID, q.question, q.explanation, qi+1,
			).Scan(&questionID); err != nil {
				log.Fatal().Err(err).Msg("Failed to insert question")
			}

			for oi, opt := range q.options {
				if _, err := tx.Exec(ctx,
					`INSERT INTO options (question_id, option_text, is_correct, sequence_number)
					 VALUES ($1, $2, $3, $4)`,
					questionID, opt, oi == q.correct, oi+1,
				); err != nil {
					log.Fatal().Err(err).Msg("Failed to insert option")
				}
			}
		}
		fmt.Printf("Created chapter %q with %d questions\n", chapter.title, len(chapter.questions))
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to commit seed data")
	}
	fmt.Println("Seed completed successfully")
}
