package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope types accepted by the inbox.
const (
	EnvelopePost    = "post"
	EnvelopeFollow  = "follow"
	EnvelopeLike    = "like"
	EnvelopeComment = "comment"
)

// AuthorDescriptor is the wire form of an author reference inside an
// envelope. Only the Id (fqid) is mandatory.
type AuthorDescriptor struct {
	Id           string `json:"id"`
	Host         string `json:"host"`
	DisplayName  string `json:"displayName"`
	Github       string `json:"github"`
	ProfileImage string `json:"profileImage"`
	Page         string `json:"page"`
}

// Envelope is the sum type for inbound deliveries. Exactly one of the
// variant pointers is set, matching Type.
type Envelope struct {
	Type    string
	Post    *PostEnvelope
	Follow  *FollowEnvelope
	Like    *LikeEnvelope
	Comment *CommentEnvelope
}

type PostEnvelope struct {
	Id          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ContentType string           `json:"contentType"`
	Content     string           `json:"content"`
	Author      AuthorDescriptor `json:"author"`
	Visibility  string           `json:"visibility"`
	Published   *time.Time       `json:"published,omitempty"`
}

type FollowEnvelope struct {
	Actor  AuthorDescriptor `json:"actor"`
	Object AuthorDescriptor `json:"object"`
}

type LikeEnvelope struct {
	Id        string           `json:"id"`
	Author    AuthorDescriptor `json:"author"`
	Object    string           `json:"object"`
	Published *time.Time       `json:"published,omitempty"`
}

type CommentEnvelope struct {
	Id          string           `json:"id"`
	Author      AuthorDescriptor `json:"author"`
	Comment     string           `json:"comment"`
	ContentType string           `json:"contentType"`
	Post        string           `json:"post"`
	Published   *time.Time       `json:"published,omitempty"`
}

// ParseEnvelope decodes an inbox payload into its typed variant. The "type"
// field selects the variant, anything else is a validation failure.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &tag); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", ErrValidation, err)
	}

	env := &Envelope{Type: tag.Type}

	switch tag.Type {
	case EnvelopePost:
		var p PostEnvelope
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("%w: malformed post envelope: %v", ErrValidation, err)
		}
		if p.Id == "" {
			return nil, fmt.Errorf("%w: post envelope missing id", ErrValidation)
		}
		if p.Author.Id == "" {
			return nil, fmt.Errorf("%w: post envelope missing author id", ErrValidation)
		}
		env.Post = &p
	case EnvelopeFollow:
		var f FollowEnvelope
		if err := json.Unmarshal(body, &f); err != nil {
			return nil, fmt.Errorf("%w: malformed follow envelope: %v", ErrValidation, err)
		}
		if f.Actor.Id == "" {
			return nil, fmt.Errorf("%w: follow envelope missing actor id", ErrValidation)
		}
		env.Follow = &f
	case EnvelopeLike:
		var l LikeEnvelope
		if err := json.Unmarshal(body, &l); err != nil {
			return nil, fmt.Errorf("%w: malformed like envelope: %v", ErrValidation, err)
		}
		if l.Author.Id == "" {
			return nil, fmt.Errorf("%w: like envelope missing author id", ErrValidation)
		}
		if l.Object == "" {
			return nil, fmt.Errorf("%w: like envelope missing object", ErrValidation)
		}
		env.Like = &l
	case EnvelopeComment:
		var c CommentEnvelope
		if err := json.Unmarshal(body, &c); err != nil {
			return nil, fmt.Errorf("%w: malformed comment envelope: %v", ErrValidation, err)
		}
		if c.Author.Id == "" {
			return nil, fmt.Errorf("%w: comment envelope missing author id", ErrValidation)
		}
		if c.Post == "" {
			return nil, fmt.Errorf("%w: comment envelope missing post", ErrValidation)
		}
		env.Comment = &c
	default:
		return nil, fmt.Errorf("%w: unknown envelope type %q", ErrValidation, tag.Type)
	}

	return env, nil
}
