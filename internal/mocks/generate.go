// Package mocks provides gomock implementations of the engine's repository, queue and gateway ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	queue := mocks.NewMockJobQueue(ctrl)
//	queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(handle, nil)
package mocks

// Repository and scope ports from internal/core.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=scope_runner_mock.go github.com/lifebuddy/lifebuddy-api/internal/core ScopeRunner
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=answer_repository_mock.go github.com/lifebuddy/lifebuddy-api/internal/core AnswerRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_repository_mock.go github.com/lifebuddy/lifebuddy-api/internal/core UserRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=synthesis_repository_mock.go github.com/lifebuddy/lifebuddy-api/internal/core SynthesisRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=synthesis_cache_mock.go github.com/lifebuddy/lifebuddy-api/internal/core SynthesisCache

// Queue ports from internal/core. JobQueue is the producer side, JobConsumer the worker side.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_queue_mock.go github.com/lifebuddy/lifebuddy-api/internal/core JobQueue
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_consumer_mock.go github.com/lifebuddy/lifebuddy-api/internal/core JobConsumer

// Gateway ports from internal/ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=engine_forwarder_mock.go github.com/lifebuddy/lifebuddy-api/internal/ports EngineForwarder
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=credential_validator_mock.go github.com/lifebuddy/lifebuddy-api/internal/ports CredentialValidator
