package emailsvc

import "github.com/upskillhq/upskill/core"

// dummyService drops everything. Useful where mail must be silenced.
type dummyService struct{}

var _ core.EmailService = (*dummyService)(nil)

func NewDummyService() core.EmailService {
	return &dummyService{}
}

func (svc dummyService) SendMessages(...*core.EmailMessage) {}
