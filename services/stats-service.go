package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"task-manager/models"
)

// StatsService produces the per-user statistics document. The document store
// could run this as an aggregation pipeline; here the grouping keys and
// reductions live in models.ComputeStatistics over one fetched set, which
// keeps them testable and the query trivial.
type StatsService struct {
	TasksCollection *mongo.Collection
}

func NewStatsService(tasksCollection *mongo.Collection) *StatsService {
	return &StatsService{TasksCollection: tasksCollection}
}

// ForUser computes statistics over the deduplicated union of the user's
// access relations.
func (s *StatsService) ForUser(ctx context.Context, userID primitive.ObjectID) (models.Statistics, error) {
	cursor, err := s.TasksCollection.Find(ctx, AccessFilter(userID))
	if err != nil {
		return models.Statistics{}, fmt.Errorf("failed to fetch tasks for statistics: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return models.Statistics{}, fmt.Errorf("failed to decode tasks for statistics: %v", err)
	}

	return models.ComputeStatistics(tasks, time.Now()), nil
}
