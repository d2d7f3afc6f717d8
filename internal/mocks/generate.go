package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/tournament --output domain/tournament --outpkg tournamentmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name RewardNotifier --dir ../domain/collaborator --output domain/collaborator --outpkg collaboratormock --filename reward_notifier_mock.go
