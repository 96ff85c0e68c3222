package homework_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/core/homework"
	inmemdb "github.com/vidyasetu/vidyasetu/storage/database/inmem"
)

type recordingNotifier struct {
	mu     sync.Mutex
	pushes []*core.PushMessage
}

func (n *recordingNotifier) Email(...*core.EmailMessage) {}

func (n *recordingNotifier) Push(messages ...*core.PushMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, m := range messages {
		if m != nil {
			n.pushes = append(n.pushes, m)
		}
	}
}

// batchTokens maps "coaching/batch" to push tokens.
type batchTokens map[string][]string

func (bt batchTokens) PushTokens(_ context.Context, coachingID, batchTime string) ([]string, error) {
	return bt[coachingID+"/"+batchTime], nil
}

func TestService(t *testing.T) {
	ctx := context.Background()
	notifier := new(recordingNotifier)
	validate, _ := core.NewValidator()
	tokens := batchTokens{"c1/Morning": {"tok-a", " ", "tok-b"}}
	svc := homework.NewService(inmemdb.NewHomeworkRepository(inmemdb.Open()), tokens, notifier, core.NopLogger{}, validate, core.NewTestConfig())

	teacher := core.Identity{ID: "t1", Role: core.RoleTeacher, CoachingID: "c1"}
	colleague := core.Identity{ID: "t2", Role: core.RoleTeacher, CoachingID: "c1"}
	outsider := core.Identity{ID: "t3", Role: core.RoleTeacher, CoachingID: "c2"}

	t.Run("no tenant", func(t *testing.T) {
		_, err := svc.Create(ctx, core.Identity{ID: "sa", Role: core.RoleSuperAdmin}, homework.NewHomework{Title: "x", BatchTime: "Morning"})
		assert.Equal(t, core.ErrNoTenant, err)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []homework.NewHomework{
			{Title: " ", BatchTime: "Morning"},
			{Title: "Algebra", BatchTime: ""},
			{Title: "Algebra", BatchTime: "Morning", DueDate: "tomorrow"},
			{Title: "Algebra", BatchTime: "Morning", Attachments: []homework.Attachment{{FileURL: "not a url", FileType: homework.FilePDF}}},
			{Title: "Algebra", BatchTime: "Morning", Attachments: []homework.Attachment{{FileURL: "https://cdn.test/a.doc", FileType: "doc"}}},
		}
		for _, nh := range tests {
			_, err := svc.Create(ctx, teacher, nh)
			var verrs validator.ValidationErrors
			assert.ErrorAs(t, err, &verrs, "%+v", nh)
		}
		assert.Empty(t, notifier.pushes)
	})

	var hw homework.Homework
	t.Run("create pushes to the batch", func(t *testing.T) {
		var err error
		hw, err = svc.Create(ctx, teacher, homework.NewHomework{
			Title:       " Algebra worksheet ",
			BatchTime:   "Morning",
			DueDate:     "2026-03-10",
			Attachments: []homework.Attachment{{FileURL: "https://cdn.test/algebra.pdf", FileType: homework.FilePDF}},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, hw.ID)
		assert.Equal(t, "Algebra worksheet", hw.Title)
		assert.Equal(t, "t1", hw.TeacherID)
		require.NotNil(t, hw.DueDate)
		assert.Equal(t, "2026-03-10", hw.DueDate.Format("2006-01-02"))

		require.Len(t, notifier.pushes, 1)
		push := notifier.pushes[0]
		assert.Equal(t, []string{"tok-a", "tok-b"}, push.Tokens)
		assert.Equal(t, "New Homework Assigned", push.Title)
		assert.Equal(t, "Algebra worksheet (Batch: Morning)", push.Body)
		assert.Equal(t, hw.ID, push.Data["homework_id"])
	})

	t.Run("batch without tokens pushes nothing", func(t *testing.T) {
		_, err := svc.Create(ctx, colleague, homework.NewHomework{Title: "Essay", BatchTime: "Evening"})
		require.NoError(t, err)
		assert.Len(t, notifier.pushes, 1)
	})

	t.Run("listing", func(t *testing.T) {
		mine, err := svc.ByTeacher(ctx, teacher)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, hw.ID, mine[0].ID)

		all, err := svc.ForCoaching(ctx, "c1")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		none, err := svc.ForCoaching(ctx, "c2")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, homework.ErrNotFound, svc.Delete(ctx, outsider, hw.ID))
		assert.True(t, core.IsNotFound(svc.Delete(ctx, teacher, "missing")))
		require.NoError(t, svc.Delete(ctx, colleague, hw.ID))

		all, err := svc.ForCoaching(ctx, "c1")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}
