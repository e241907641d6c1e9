// internal/community/implementation.go
package community

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"booknest/internal/notification"
	"booknest/internal/platform/telemetry"
	"booknest/internal/result"
)

const defaultPageSize = 20

type service struct {
	repo     Repository
	notifier Notifier
	log      *zap.SugaredLogger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewService creates a new community service instance.
func NewService(repo Repository, notifier Notifier, log *zap.SugaredLogger) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
		log:      log,
		tracer:   otel.Tracer("booknest/community"),
		now:      time.Now,
	}
}

func (s *service) CreatePost(ctx context.Context, in NewPost) (p *Post, err error) {
	ctx, span := s.tracer.Start(ctx, "community.create_post")
	defer func() { telemetry.End(ctx, span, "community.create_post", err) }()

	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, result.InvalidInput("Title and content are required")
	}
	now := s.now().UTC()
	p = &Post{
		ID:        uuid.New(),
		AuthorID:  in.AuthorID,
		Title:     in.Title,
		Content:   in.Content,
		Category:  in.Category,
		BookID:    in.BookID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return nil, result.Failed(err)
	}
	s.log.Infow("Post created", "post_id", p.ID, "author_id", p.AuthorID, "category", p.Category)
	return p, nil
}

func (s *service) ListPosts(ctx context.Context, category string, limit, offset int) (out []*PostSummary, err error) {
	ctx, span := s.tracer.Start(ctx, "community.list_posts")
	defer func() { telemetry.End(ctx, span, "community.list_posts", err) }()

	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	out, err = s.repo.ListPosts(ctx, category, limit, offset)
	return out, result.Failed(err)
}

func (s *service) GetPost(ctx context.Context, postID, viewerID uuid.UUID) (d *PostDetail, err error) {
	ctx, span := s.tracer.Start(ctx, "community.get_post")
	defer func() { telemetry.End(ctx, span, "community.get_post", err) }()

	p, err := s.post(ctx, postID)
	if err != nil {
		return nil, err
	}
	if views, err := s.repo.IncrementViews(ctx, postID); err != nil {
		s.log.Warnw("Failed to count post view", "post_id", postID, "error", err)
	} else {
		p.ViewCount = views
	}

	comments, err := s.repo.ListComments(ctx, postID)
	if err != nil {
		return nil, result.Failed(err)
	}
	reactions, err := s.repo.ListPostReactions(ctx, postID)
	if err != nil {
		return nil, result.Failed(err)
	}

	mine := []ReactionType{}
	if viewerID != uuid.Nil {
		for _, re := range reactions {
			if re.UserID == viewerID {
				mine = append(mine, re.ReactionType)
			}
		}
	}
	return &PostDetail{Post: p, Comments: comments, Reactions: reactions, UserReactions: mine}, nil
}

func (s *service) UpdatePost(ctx context.Context, postID, authorID uuid.UUID, update PostUpdate) (p *Post, err error) {
	ctx, span := s.tracer.Start(ctx, "community.update_post")
	defer func() { telemetry.End(ctx, span, "community.update_post", err) }()

	if (update.Title != nil && strings.TrimSpace(*update.Title) == "") ||
		(update.Content != nil && strings.TrimSpace(*update.Content) == "") {
		return nil, result.InvalidInput("Title and content must not be empty")
	}
	p, err = s.authored(ctx, postID, authorID)
	if err != nil {
		return nil, err
	}
	update.apply(p)
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.SavePost(ctx, p); err != nil {
		return nil, result.Failed(err)
	}
	return p, nil
}

func (s *service) DeletePost(ctx context.Context, postID, authorID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "community.delete_post")
	defer func() { telemetry.End(ctx, span, "community.delete_post", err) }()

	if _, err := s.authored(ctx, postID, authorID); err != nil {
		return err
	}
	if err := s.repo.DeletePost(ctx, postID); err != nil {
		return result.Failed(err)
	}
	s.log.Infow("Post deleted", "post_id", postID, "author_id", authorID)
	return nil
}

// AddCommentToPost appends a comment and tells the post author, unless the
// author is commenting on their own post.
func (s *service) AddCommentToPost(ctx context.Context, postID, authorID uuid.UUID, content string) (c *Comment, err error) {
	ctx, span := s.tracer.Start(ctx, "community.add_comment")
	defer func() { telemetry.End(ctx, span, "community.add_comment", err) }()

	if strings.TrimSpace(content) == "" {
		return nil, result.InvalidInput("Comment required")
	}
	p, err := s.post(ctx, postID)
	if err != nil {
		return nil, err
	}

	c = &Comment{
		ID:        uuid.New(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, result.NotFound("Post not found")
		}
		return nil, result.Failed(err)
	}

	if p.AuthorID != authorID {
		s.notifier.Notify(ctx, notification.Note{
			UserID:    p.AuthorID,
			Title:     "New Comment",
			Message:   "Someone commented on your post",
			Type:      notification.TypeCommunity,
			RelatedID: postID,
		})
	}
	return c, nil
}

func (s *service) AddReactionToPost(ctx context.Context, postID, userID uuid.UUID, reaction ReactionType) (t *Toggle, err error) {
	ctx, span := s.tracer.Start(ctx, "community.react_post")
	defer func() { telemetry.End(ctx, span, "community.react_post", err) }()

	if _, err := s.post(ctx, postID); err != nil {
		return nil, err
	}
	target := postID
	return s.toggle(ctx, &Reaction{PostID: &target, UserID: userID, ReactionType: reaction})
}

func (s *service) AddReactionToComment(ctx context.Context, commentID, userID uuid.UUID, reaction ReactionType) (t *Toggle, err error) {
	ctx, span := s.tracer.Start(ctx, "community.react_comment")
	defer func() { telemetry.End(ctx, span, "community.react_comment", err) }()

	_, err = s.repo.GetComment(ctx, commentID)
	if errors.Is(err, ErrNotFound) {
		return nil, result.NotFound("Comment not found")
	}
	if err != nil {
		return nil, result.Failed(err)
	}
	target := commentID
	return s.toggle(ctx, &Reaction{CommentID: &target, UserID: userID, ReactionType: reaction})
}

// toggle removes the reaction if the user already left it, and adds it
// otherwise. The type defaults to like.
func (s *service) toggle(ctx context.Context, re *Reaction) (*Toggle, error) {
	if re.ReactionType == "" {
		re.ReactionType = ReactionLike
	}
	if !re.ReactionType.Valid() {
		return nil, result.InvalidInput("Invalid reaction type")
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("reaction", string(re.ReactionType)))

	re.ID = uuid.New()
	re.CreatedAt = s.now().UTC()
	removed, err := s.repo.ToggleReaction(ctx, re)
	if err != nil {
		return nil, result.Failed(err)
	}
	if removed {
		return &Toggle{Removed: true}, nil
	}
	return &Toggle{Reaction: re}, nil
}

func (s *service) post(ctx context.Context, id uuid.UUID) (*Post, error) {
	p, err := s.repo.GetPost(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, result.NotFound("Post not found")
	}
	if err != nil {
		return nil, result.Failed(err)
	}
	return p, nil
}

func (s *service) authored(ctx context.Context, postID, authorID uuid.UUID) (*Post, error) {
	p, err := s.repo.GetPost(ctx, postID)
	if errors.Is(err, ErrNotFound) {
		return nil, result.Unauthorized("Unauthorized")
	}
	if err != nil {
		return nil, result.Failed(err)
	}
	if p.AuthorID != authorID {
		return nil, result.Unauthorized("Unauthorized")
	}
	return p, nil
}
