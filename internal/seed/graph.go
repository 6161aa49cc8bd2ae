package seed

import (
	"time"

	"feedengine/internal/models"
)

// GraphOptions sizes a generated social graph.
type GraphOptions struct {
	Users    int
	Posts    int
	Comments int
	Follows  int
	Likes    int
	Reposts  int
	// Days spreads creation times over the window ending at Now.
	Days int
	Now  time.Time
}

// DefaultGraphOptions is the demo-sized graph used by cmd/seed.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		Users:    25,
		Posts:    120,
		Comments: 300,
		Follows:  150,
		Likes:    600,
		Reposts:  120,
		Days:     14,
		Now:      time.Now().UTC(),
	}
}

// Graph holds everything SeedGraph created.
type Graph struct {
	Users    []*models.User
	Posts    []*models.Post
	Comments []*models.Comment
	Follows  int
	Likes    int
	Reposts  int
}

// Refs lists every content reference in the graph.
func (g *Graph) Refs() []models.ContentRef {
	refs := make([]models.ContentRef, 0, len(g.Posts)+len(g.Comments))
	for _, p := range g.Posts {
		refs = append(refs, models.PostRef(p.ID))
	}
	for _, c := range g.Comments {
		refs = append(refs, models.CommentRef(c.ID))
	}
	return refs
}

type edgeKey struct {
	user   uint
	target models.ContentRef
}

// SeedGraph generates a random but reproducible social graph. Duplicate
// edges and self-follows drawn by the generator are skipped, so the edge
// counts in the result may be lower than requested.
func (f *Factory) SeedGraph(opts GraphOptions) (*Graph, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	if opts.Days <= 0 {
		opts.Days = 1
	}
	if opts.Users < 1 {
		opts.Users = 1
	}
	start := opts.Now.Add(-time.Duration(opts.Days) * 24 * time.Hour)

	g := &Graph{}
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		g.Users = append(g.Users, u)
	}

	for i := 0; i < opts.Posts; i++ {
		at := f.faker.DateRange(start, opts.Now).Truncate(time.Second)
		p, err := f.CreatePost(f.pickUser(g), PostAt(at))
		if err != nil {
			return nil, err
		}
		g.Posts = append(g.Posts, p)
	}

	byPost := make(map[uint][]*models.Comment)
	for i := 0; i < opts.Comments && len(g.Posts) > 0; i++ {
		post := g.Posts[f.faker.Number(0, len(g.Posts)-1)]
		var parent *models.Comment
		if siblings := byPost[post.ID]; len(siblings) > 0 && f.faker.Bool() {
			parent = siblings[f.faker.Number(0, len(siblings)-1)]
		}
		floor := post.CreatedAt
		if parent != nil {
			floor = parent.CreatedAt
		}
		c, err := f.CreateComment(f.pickUser(g), post, parent, CommentAt(f.after(floor, opts.Now)))
		if err != nil {
			return nil, err
		}
		byPost[post.ID] = append(byPost[post.ID], c)
		g.Comments = append(g.Comments, c)
	}

	follows := make(map[[2]uint]struct{})
	for i := 0; i < opts.Follows && len(g.Users) > 1; i++ {
		a, b := f.pickUser(g), f.pickUser(g)
		key := [2]uint{a.ID, b.ID}
		if a.ID == b.ID {
			continue
		}
		if _, dup := follows[key]; dup {
			continue
		}
		follows[key] = struct{}{}
		if err := f.Follow(a, b, f.faker.DateRange(start, opts.Now)); err != nil {
			return nil, err
		}
		g.Follows++
	}

	refs := g.Refs()
	created := make(map[models.ContentRef]time.Time, len(refs))
	for _, p := range g.Posts {
		created[models.PostRef(p.ID)] = p.CreatedAt
	}
	for _, c := range g.Comments {
		created[models.CommentRef(c.ID)] = c.CreatedAt
	}

	likes := make(map[edgeKey]struct{})
	for i := 0; i < opts.Likes && len(refs) > 0; i++ {
		user, ref := f.pickUser(g), refs[f.faker.Number(0, len(refs)-1)]
		key := edgeKey{user.ID, ref}
		if _, dup := likes[key]; dup {
			continue
		}
		likes[key] = struct{}{}
		if _, err := f.Like(user, ref, f.after(created[ref], opts.Now)); err != nil {
			return nil, err
		}
		g.Likes++
	}

	reposts := make(map[edgeKey]struct{})
	for i := 0; i < opts.Reposts && len(refs) > 0; i++ {
		user, ref := f.pickUser(g), refs[f.faker.Number(0, len(refs)-1)]
		key := edgeKey{user.ID, ref}
		if _, dup := reposts[key]; dup {
			continue
		}
		reposts[key] = struct{}{}
		if _, err := f.Repost(user, ref, f.after(created[ref], opts.Now)); err != nil {
			return nil, err
		}
		g.Reposts++
	}

	return g, nil
}

func (f *Factory) pickUser(g *Graph) *models.User {
	return g.Users[f.faker.Number(0, len(g.Users)-1)]
}

// after returns a second-aligned time in [floor, now].
func (f *Factory) after(floor, now time.Time) time.Time {
	if !floor.Before(now) {
		return floor
	}
	return f.faker.DateRange(floor, now).Truncate(time.Second)
}
