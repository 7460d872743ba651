package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"postly/internal/models"
)

// NewPostEvent is the payload pushed to browsers when a post is published.
type NewPostEvent struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

// PostNotifier e-mails every user and pushes a realtime event for each new post.
type PostNotifier struct {
	users   *UserService
	mail    *MailService
	hub     *Hub
	siteURL string
}

func NewPostNotifier(users *UserService, mail *MailService, hub *Hub, siteURL string) *PostNotifier {
	return &PostNotifier{
		users:   users,
		mail:    mail,
		hub:     hub,
		siteURL: strings.TrimSuffix(siteURL, "/"),
	}
}

func (n *PostNotifier) PostCreated(post *models.Post) {
	path := fmt.Sprintf("/post/%d", post.ID)
	author := post.User.DisplayName()

	if n.hub != nil {
		sent := n.hub.Publish(PushChannel, EventNewPost, NewPostEvent{
			ID:     post.ID,
			Title:  post.Title,
			Author: author,
			URL:    path,
		})
		log.Printf("[notify] post %d queued for %d clients", post.ID, sent)
	}

	if n.mail == nil || !n.mail.Enabled || n.users == nil {
		return
	}
	go func() {
		emails, err := n.users.AllEmails(context.Background())
		if err != nil {
			log.Printf("[notify] cannot load recipients for post %d: %v", post.ID, err)
			return
		}
		n.mail.SendNewPostNotification(emails, author, post.Title, n.siteURL+path)
	}()
}
