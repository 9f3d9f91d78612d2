package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/hill --output domain/hill --outpkg hillmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/lobby --output domain/lobby --outpkg lobbymock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/controlpoint --output domain/controlpoint --outpkg controlpointmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/payout --output domain/payout --outpkg payoutmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Gate --dir ../domain/deposit --output domain/deposit --outpkg depositmock --filename gate_mock.go
