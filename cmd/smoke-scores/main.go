package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gradebook.org/internal/grades"
	"gradebook.org/internal/grades/remote"
)

// Exercises the score ledger end to end against a running instance:
// submit, re-submit the same triple, update, then delete.
func main() {
	baseURL := os.Getenv("GRADEBOOK_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	token := os.Getenv("GRADEBOOK_SMOKE_TOKEN")
	if token == "" {
		log.Fatal("missing GRADEBOOK_SMOKE_TOKEN (staff bearer token)")
	}
	studentID := envOr("GRADEBOOK_SMOKE_STUDENT", "SV001")
	subjectID := envOr("GRADEBOOK_SMOKE_SUBJECT", "CS101")
	semester := envOr("GRADEBOOK_SMOKE_SEMESTER", "2025A")

	svc := remote.NewClient(baseURL, token)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	first, err := svc.SubmitScore(ctx, grades.Submission{
		StudentID:  studentID,
		SubjectID:  subjectID,
		Semester:   semester,
		Components: grades.Components{Ex1Score: 8, Ex2Score: 7, ExamScore: 9},
	})
	if err != nil {
		log.Fatalf("submit: %v", err)
	}
	if first.FinalScore != 8.3 || first.LetterGrade != "B+" {
		log.Fatalf("unexpected derivation: final=%.1f grade=%s", first.FinalScore, first.LetterGrade)
	}

	second, err := svc.SubmitScore(ctx, grades.Submission{
		StudentID:  studentID,
		SubjectID:  subjectID,
		Semester:   semester,
		Components: grades.Components{Ex1Score: 10, Ex2Score: 10, ExamScore: 10},
	})
	if err != nil {
		log.Fatalf("re-submit: %v", err)
	}
	if second.ID != first.ID {
		log.Fatalf("triple uniqueness violated: %s vs %s", first.ID, second.ID)
	}
	if second.LetterGrade != "A+" {
		log.Fatalf("re-submit derivation: grade=%s", second.LetterGrade)
	}

	updated, err := svc.UpdateScore(ctx, first.ID, grades.Components{Ex1Score: 4, Ex2Score: 4, ExamScore: 4})
	if err != nil {
		log.Fatalf("update: %v", err)
	}
	if updated.LetterGrade != "D" {
		log.Fatalf("update derivation: grade=%s", updated.LetterGrade)
	}

	if err := svc.DeleteScore(ctx, first.ID); err != nil {
		log.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetScore(ctx, first.ID); err == nil {
		log.Fatal("record still present after delete")
	}

	fmt.Printf("✅ gradebook smoke test passed: record=%s\n", first.ID)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
