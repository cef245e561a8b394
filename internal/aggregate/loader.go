package aggregate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/duet-app/duet/internal/habit"
	"github.com/duet-app/duet/internal/model"
	"github.com/duet-app/duet/internal/store"
)

const feedLimit = 100

// TaskView is a task joined with its projected completion state.
type TaskView struct {
	model.Task
	habit.TaskStatus
}

// PartnerTaskView is a partner task joined with its joint projection,
// evaluated from the loading profile's perspective.
type PartnerTaskView struct {
	model.PartnerTask
	habit.PartnerStatus
}

// Snapshot is an immutable view of everything the client renders. Mutations
// go through the stores; callers refetch rather than patching a snapshot.
type Snapshot struct {
	Profile      model.Profile      `json:"profile"`
	Tasks        []TaskView         `json:"tasks"`
	PartnerTasks []PartnerTaskView  `json:"partner_tasks"`
	Friendships  []model.Friendship `json:"friendships"`
	Posts        []model.Post       `json:"posts"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// Loader fetches a profile's collections concurrently and projects them
// through the habit package.
type Loader struct {
	profiles    *store.ProfileStore
	tasks       *store.TaskStore
	partners    *store.PartnerTaskStore
	friendships *store.FriendshipStore
	posts       *store.PostStore
}

func NewLoader(ps *store.ProfileStore, ts *store.TaskStore, pts *store.PartnerTaskStore, fs *store.FriendshipStore, posts *store.PostStore) *Loader {
	return &Loader{
		profiles:    ps,
		tasks:       ts,
		partners:    pts,
		friendships: fs,
		posts:       posts,
	}
}

// Load fetches profile, tasks, partner tasks, friendships, and posts in one
// concurrent fan-out and returns the projected snapshot. today is injected
// so callers (and tests) control the clock.
func (l *Loader) Load(ctx context.Context, profileID int64, today time.Time) (*Snapshot, error) {
	var (
		profile            *model.Profile
		tasks              []model.Task
		completions        []model.TaskCompletion
		partnerTasks       []model.PartnerTask
		partnerCompletions map[int64][]model.PartnerTaskCompletion
		friendships        []model.Friendship
		posts              []model.Post
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profile, err = l.profiles.GetByID(profileID)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = l.tasks.ListByOwner(profileID)
		return err
	})
	g.Go(func() (err error) {
		completions, err = l.tasks.ListCompletionsByOwner(profileID)
		return err
	})
	g.Go(func() (err error) {
		partnerTasks, err = l.partners.ListForProfile(profileID)
		if err != nil {
			return err
		}
		partnerCompletions = make(map[int64][]model.PartnerTaskCompletion, len(partnerTasks))
		for _, pt := range partnerTasks {
			rows, err := l.partners.ListCompletions(pt.ID)
			if err != nil {
				return err
			}
			partnerCompletions[pt.ID] = rows
		}
		return nil
	})
	g.Go(func() (err error) {
		friendships, err = l.friendships.ListForProfile(profileID)
		return err
	})
	g.Go(func() (err error) {
		posts, err = l.posts.ListFeed(profileID, feedLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %d not found", profileID)
	}

	byTask := make(map[int64][]model.TaskCompletion, len(tasks))
	for _, c := range completions {
		byTask[c.TaskID] = append(byTask[c.TaskID], c)
	}

	snap := &Snapshot{
		Profile:      *profile,
		Tasks:        make([]TaskView, 0, len(tasks)),
		PartnerTasks: make([]PartnerTaskView, 0, len(partnerTasks)),
		Friendships:  friendships,
		Posts:        posts,
		GeneratedAt:  today,
	}

	for _, t := range tasks {
		snap.Tasks = append(snap.Tasks, TaskView{
			Task:       t,
			TaskStatus: habit.ProjectTask(byTask[t.ID], today),
		})
	}

	for _, pt := range partnerTasks {
		var yours, partners []model.PartnerTaskCompletion
		for _, c := range partnerCompletions[pt.ID] {
			if c.ProfileID == profileID {
				yours = append(yours, c)
			} else {
				partners = append(partners, c)
			}
		}
		snap.PartnerTasks = append(snap.PartnerTasks, PartnerTaskView{
			PartnerTask:   pt,
			PartnerStatus: habit.ProjectPartner(pt, yours, partners, today),
		})
	}

	return snap, nil
}
