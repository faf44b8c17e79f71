package service

import "context"

// TxRepositories provides transaction-bound repositories.
type TxRepositories interface {
	Files() FileRepositoryInterface
	Studies() StudyRepositoryInterface
	Recipes() RecipeRepositoryInterface
	LLMCalls() LLMCallRepositoryInterface
	Results() ResultRepositoryInterface
}

// TxRunner executes a function within a transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
