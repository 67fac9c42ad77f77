//go:build integration
// +build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ammerola/preloved-be/internal/adapters/db"
	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
	"github.com/ammerola/preloved-be/test/helpers"
)

type ItemRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	repo   ports.ItemRepository
	jobs   ports.JobRepository
	ctx    context.Context
}

func (s *ItemRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.repo = db.NewItemRepository(s.testDB.Database, helpers.TestLogger())
	s.jobs = db.NewJobRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *ItemRepositorySuite) SetupTest() {
	s.testDB.Truncate(s.T())
}

func (s *ItemRepositorySuite) TestSaveAndFind() {
	original := int64(240)
	item := helpers.CreateTestItem(func(i *domain.Item) {
		i.ID = "coat-1"
		i.OriginalPrice = &original
		i.Sizes = []domain.Size{domain.SizeS, domain.SizeM}
	})

	s.Require().NoError(s.repo.Save(s.ctx, item))

	saved, err := s.repo.FindByID(s.ctx, "coat-1")
	s.Require().NoError(err)
	helpers.CompareItems(s.T(), item, saved)
	s.Equal(domain.SeasonWinter, saved.Season)
	s.Equal(domain.StyleMinimalist, saved.StyleCategory)
	s.Empty(saved.Occasion)
}

func (s *ItemRepositorySuite) TestSaveReplacesExisting() {
	item := helpers.CreateTestItem(func(i *domain.Item) { i.ID = "coat-1" })
	s.Require().NoError(s.repo.Save(s.ctx, item))

	item.Price = 95
	item.Tags = []string{"sale"}
	s.Require().NoError(s.repo.Save(s.ctx, item))

	saved, err := s.repo.FindByID(s.ctx, "coat-1")
	s.Require().NoError(err)
	s.Equal(int64(95), saved.Price)
	s.Equal([]string{"sale"}, saved.Tags)

	count, err := s.repo.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *ItemRepositorySuite) TestSaveBatchAndList() {
	items := helpers.CreateTestItems(10)
	s.Require().NoError(s.repo.SaveBatch(s.ctx, items))

	all, err := s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 10)
	// newest first
	s.Equal("item-010", all[0].ID)

	shoes, err := s.repo.ListByCategory(s.ctx, domain.CategoryShoes)
	s.Require().NoError(err)
	s.Len(shoes, 2)
	for _, item := range shoes {
		s.Equal(domain.CategoryShoes, item.Category)
	}
}

func (s *ItemRepositorySuite) TestUpdateStock() {
	item := helpers.CreateTestItem(func(i *domain.Item) { i.ID = "coat-1" })
	s.Require().NoError(s.repo.Save(s.ctx, item))

	s.Require().NoError(s.repo.UpdateStock(s.ctx, "coat-1", domain.StatusSold, 0))

	saved, err := s.repo.FindByID(s.ctx, "coat-1")
	s.Require().NoError(err)
	s.Equal(domain.StatusSold, saved.Status)
	s.Zero(saved.StockCount)

	s.ErrorIs(s.repo.UpdateStock(s.ctx, "missing", domain.StatusSold, 0), domain.ErrItemNotFound)
}

func (s *ItemRepositorySuite) TestSoftDelete() {
	item := helpers.CreateTestItem(func(i *domain.Item) { i.ID = "coat-1" })
	s.Require().NoError(s.repo.Save(s.ctx, item))

	s.Require().NoError(s.repo.SoftDelete(s.ctx, "coat-1"))

	_, err := s.repo.FindByID(s.ctx, "coat-1")
	s.ErrorIs(err, domain.ErrItemNotFound)
	s.ErrorIs(s.repo.SoftDelete(s.ctx, "coat-1"), domain.ErrItemNotFound)

	all, err := s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *ItemRepositorySuite) TestImportJobLifecycle() {
	job := &domain.ImportJob{
		ID:        "job-1",
		Type:      "catalog:import",
		FileName:  "stock.xlsx",
		Status:    domain.JobQueued,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.jobs.Create(s.ctx, job))

	started := time.Now().UTC().Truncate(time.Microsecond)
	job.Status = domain.JobCompletedWithError
	job.StartedAt = &started
	job.CompletedAt = &started
	job.RowsRead = 12
	job.ItemsSaved = 11
	job.Errors = []string{"row 7: price cannot be negative"}
	s.Require().NoError(s.jobs.Update(s.ctx, job))

	saved, err := s.jobs.FindByID(s.ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(domain.JobCompletedWithError, saved.Status)
	s.Equal(12, saved.RowsRead)
	s.Equal(11, saved.ItemsSaved)
	s.Equal(job.Errors, saved.Errors)
	s.Require().NotNil(saved.StartedAt)
	s.True(started.Equal(*saved.StartedAt))

	_, err = s.jobs.FindByID(s.ctx, "job-unknown")
	s.ErrorIs(err, domain.ErrJobNotFound)
	s.ErrorIs(s.jobs.Update(s.ctx, &domain.ImportJob{ID: "job-unknown"}), domain.ErrJobNotFound)

	pending := &domain.ImportJob{ID: "job-2", Type: "catalog:import", Status: domain.JobProcessing, CreatedAt: job.CreatedAt}
	s.Require().NoError(s.jobs.Create(s.ctx, pending))

	deleted, err := s.jobs.DeleteFinishedBefore(s.ctx, time.Now().Add(time.Minute))
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)

	_, err = s.jobs.FindByID(s.ctx, "job-1")
	s.ErrorIs(err, domain.ErrJobNotFound)
	_, err = s.jobs.FindByID(s.ctx, "job-2")
	s.NoError(err)
}

func TestItemRepositorySuite(t *testing.T) {
	suite.Run(t, new(ItemRepositorySuite))
}
