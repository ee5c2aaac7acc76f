package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
)

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Name() string { return "fake" }

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio intake.Audio) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSummarizer struct {
	out   string
	err   error
	input []string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	f.input = append(f.input, transcript)
	return f.out, f.err
}

type fakeQuiz struct {
	out   string
	err   error
	input []string
}

func (f *fakeQuiz) Generate(ctx context.Context, transcript string) (string, error) {
	f.input = append(f.input, transcript)
	return f.out, f.err
}

func stagedAudio(t *testing.T) intake.Audio {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bio.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
	return intake.Audio{Path: path, Name: "bio.mp3", Format: "mp3", Size: 5}
}

func TestProcessRunsStagesInOrder(t *testing.T) {
	out := t.TempDir()
	cfg := &config.Config{Paths: config.PathsConfig{Output: out}}
	tr := &fakeTranscriber{text: "The mitochondria is the powerhouse of the cell."}
	sum := &fakeSummarizer{out: "Mitochondria make energy."}
	qz := &fakeQuiz{out: "1. What makes energy?"}
	p := New(cfg, tr, sum, qz, logger.Nop())

	var stages []Stage
	audio := stagedAudio(t)
	res, err := p.Process(context.Background(), Request{
		RunID:   "0123456789abcdef",
		Audio:   audio,
		OnStage: func(s Stage) { stages = append(stages, s) },
	})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	want := []Stage{StageTranscribing, StageSummarizing, StageQuizzing}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage %d = %s, want %s", i, stages[i], want[i])
		}
	}

	if res.Transcript != tr.text || res.Summary != sum.out || res.Quiz != qz.out || res.RunID != "0123456789abcdef" {
		t.Errorf("result = %+v", res)
	}
	if sum.input[0] != tr.text || qz.input[0] != tr.text {
		t.Error("downstream stages did not receive the transcript")
	}

	runDir := filepath.Join(out, "bio-01234567")
	if len(res.NotesPaths) != 2 || filepath.Dir(res.NotesPaths[0]) != runDir {
		t.Errorf("NotesPaths = %v", res.NotesPaths)
	}
	if res.AudioPath != filepath.Join(runDir, "audio.mp3") {
		t.Errorf("AudioPath = %q", res.AudioPath)
	}
	if _, err := os.Stat(audio.Path); !os.IsNotExist(err) {
		t.Error("staged audio still in place after archive")
	}
	md, err := os.ReadFile(res.NotesPaths[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(md), "Mitochondria make energy.") {
		t.Errorf("markdown = %s", md)
	}
}

func TestProcessKeepSourceCopiesAudio(t *testing.T) {
	out := t.TempDir()
	cfg := &config.Config{Paths: config.PathsConfig{Output: out}}
	p := New(cfg, &fakeTranscriber{text: "t"}, &fakeSummarizer{out: "s"}, &fakeQuiz{out: "q"}, logger.Nop())

	audio := stagedAudio(t)
	res, err := p.Process(context.Background(), Request{RunID: "abcdef0123", Audio: audio, KeepSource: true})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	original, err := os.ReadFile(audio.Path)
	if err != nil || string(original) != "audio" {
		t.Errorf("caller's audio = %q, %v; want it left in place", original, err)
	}
	archived, err := os.ReadFile(res.AudioPath)
	if err != nil || string(archived) != "audio" {
		t.Errorf("archived audio = %q, %v", archived, err)
	}
	if res.AudioPath != filepath.Join(out, "bio-abcdef01", "audio.mp3") {
		t.Errorf("AudioPath = %q", res.AudioPath)
	}
}

func TestProcessEmptyTranscriptStillRunsDownstream(t *testing.T) {
	tr := &fakeTranscriber{text: ""}
	sum := &fakeSummarizer{out: "Nothing was said."}
	qz := &fakeQuiz{out: "1. ?"}
	p := New(&config.Config{}, tr, sum, qz, logger.Nop())

	res, err := p.Process(context.Background(), Request{Audio: stagedAudio(t)})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(sum.input) != 1 || len(qz.input) != 1 {
		t.Errorf("summarizer calls = %d, quiz calls = %d", len(sum.input), len(qz.input))
	}
	if res.NotesPaths != nil || res.AudioPath != "" {
		t.Errorf("export ran without output dir: %+v", res)
	}
}

func TestProcessStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name      string
		tr        *fakeTranscriber
		sum       *fakeSummarizer
		qz        *fakeQuiz
		wantStage Stage
		sumCalls  int
		quizCalls int
	}{
		{
			name:      "transcription fails",
			tr:        &fakeTranscriber{err: boom},
			sum:       &fakeSummarizer{out: "s"},
			qz:        &fakeQuiz{out: "q"},
			wantStage: StageTranscribing,
		},
		{
			name:      "summary fails",
			tr:        &fakeTranscriber{text: "t"},
			sum:       &fakeSummarizer{err: boom},
			qz:        &fakeQuiz{out: "q"},
			wantStage: StageSummarizing,
			sumCalls:  1,
		},
		{
			name:      "quiz fails",
			tr:        &fakeTranscriber{text: "t"},
			sum:       &fakeSummarizer{out: "s"},
			qz:        &fakeQuiz{err: boom},
			wantStage: StageQuizzing,
			sumCalls:  1,
			quizCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := t.TempDir()
			p := New(&config.Config{Paths: config.PathsConfig{Output: out}}, tt.tr, tt.sum, tt.qz, logger.Nop())

			res, err := p.Process(context.Background(), Request{Audio: stagedAudio(t)})
			if res != nil {
				t.Errorf("partial result returned: %+v", res)
			}
			var se *StageError
			if !errors.As(err, &se) || se.Stage != tt.wantStage {
				t.Fatalf("error = %v, want StageError at %s", err, tt.wantStage)
			}
			if !errors.Is(err, boom) {
				t.Error("StageError does not unwrap to the cause")
			}
			if len(tt.sum.input) != tt.sumCalls || len(tt.qz.input) != tt.quizCalls {
				t.Errorf("calls: summary=%d quiz=%d", len(tt.sum.input), len(tt.qz.input))
			}
			entries, _ := os.ReadDir(out)
			if len(entries) != 0 {
				t.Errorf("output written for failed run: %v", entries)
			}
		})
	}
}

func TestStageErrorMessage(t *testing.T) {
	err := &StageError{Stage: StageQuizzing, Err: errors.New("oom")}
	if err.Error() != "quizzing: oom" {
		t.Errorf("Error() = %q", err.Error())
	}
}
