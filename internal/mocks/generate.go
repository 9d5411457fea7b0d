package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Client --dir ../provider --output provider --outpkg providermock --filename client_mock.go
