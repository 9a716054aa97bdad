package web

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/deemkeen/mammut/domain"
	"github.com/deemkeen/mammut/util"
	"github.com/google/uuid"
	"github.com/gorilla/feeds"
)

// GetRSS renders the public posts as an RSS feed, optionally narrowed to a
// single author by username.
func (s *Server) GetRSS(username string) (string, error) {
	var err error
	var posts *[]domain.Post
	var title string
	var createdBy string

	link := fmt.Sprintf("http://%s:%d/feed", s.conf.Conf.Host, s.conf.Conf.HttpPort)

	if username != "" {
		err, author := s.db.ReadAuthorByUsername(username)
		if err != nil {
			log.Println(fmt.Sprintf("Could not get posts from %s!", username), err)
			return "", errors.New("error retrieving posts by username")
		}
		err, posts = s.db.ReadPostsByAuthor(author.Id, []string{domain.VisibilityPublic}, 50, 0)
		if err != nil {
			return "", errors.New("error retrieving posts by username")
		}
		title = fmt.Sprintf("%s Posts - %s", s.conf.Conf.NodeName, username)
		createdBy = author.DisplayName
		link = fmt.Sprintf("%s?username=%s", link, username)
	} else {
		err, posts = s.db.ReadPublicPosts(50, 0)
		if err != nil {
			log.Println("Could not get posts!", err)
			return "", errors.New("error retrieving posts")
		}
		title = fmt.Sprintf("All %s Posts", s.conf.Conf.NodeName)
		createdBy = "everyone"
	}

	feed := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: link},
		Description: fmt.Sprintf("public posts on %s", s.conf.Conf.NodeName),
		Author:      &feeds.Author{Name: createdBy, Email: fmt.Sprintf("%s@%s", createdBy, s.conf.Conf.NodeName)},
		Created:     time.Now(),
	}

	var feedItems []*feeds.Item
	for _, post := range *posts {
		err, author := s.db.ReadAuthorById(post.AuthorId)
		if err != nil {
			continue
		}
		feedItems = append(feedItems,
			&feeds.Item{
				Id:      post.Fqid,
				Title:   post.Title,
				Link:    &feeds.Link{Href: fmt.Sprintf("http://%s:%d/feed/%s", s.conf.Conf.Host, s.conf.Conf.HttpPort, post.Id)},
				Content: post.Content,
				Author:  &feeds.Author{Name: author.DisplayName, Email: fmt.Sprintf("%s@%s", author.Username, s.conf.Conf.NodeName)},
				Created: post.Published,
			})
	}

	feed.Items = feedItems
	return feed.ToRss()
}

// GetRSSItem renders a single public post as a one-item feed.
func (s *Server) GetRSSItem(id uuid.UUID) (string, error) {
	err, post := s.db.ReadPostById(id)
	if err != nil || post.IsDeleted || post.Visibility != domain.VisibilityPublic {
		log.Println("Could not get post!", err)
		return "", errors.New("error retrieving post by id")
	}
	err, author := s.db.ReadAuthorById(post.AuthorId)
	if err != nil {
		return "", errors.New("error retrieving post author")
	}

	feed := &feeds.Feed{
		Title:       post.Title,
		Link:        &feeds.Link{Href: fmt.Sprintf("http://%s:%d/feed/%s", s.conf.Conf.Host, s.conf.Conf.HttpPort, post.Id)},
		Description: post.Description,
		Author:      &feeds.Author{Name: author.DisplayName, Email: fmt.Sprintf("%s@%s", author.Username, s.conf.Conf.NodeName)},
		Created:     post.Published,
		Items: []*feeds.Item{
			{
				Id:      post.Fqid,
				Title:   post.Published.Format(util.DateTimeFormat()),
				Link:    &feeds.Link{Href: fmt.Sprintf("http://%s:%d/feed/%s", s.conf.Conf.Host, s.conf.Conf.HttpPort, post.Id)},
				Content: post.Content,
				Author:  &feeds.Author{Name: author.DisplayName},
				Created: post.Published,
			},
		},
	}
	return feed.ToRss()
}
