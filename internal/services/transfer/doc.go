/*
Package transfer moves funds between two accounts.

A transfer is validated, prechecked against the current balances and then
executed as one atomic unit on the Store: both accounts are locked in
ascending account number order, the funds check is repeated under the locks,
both balances change and the ledger record is appended. Either all of that
commits or none of it does.

Usage:

	svc := transfer.NewService(transfer.Deps{
	    Store:   store,
	    Audit:   sink,
	    Metrics: collector,
	    Logger:  logger,
	}, transfer.Config{MaxRetries: 3})

	res, err := svc.Execute(ctx, transfer.Request{
	    Amount:          30000,
	    PaymentMethod:   "bank_transfer",
	    SenderAccount:   "ACC-A",
	    ReceiverAccount: "ACC-B",
	    Kind:            "transfer",
	})

Error Handling:

Every error returned by Execute carries an apperrors.Kind:
- INVALID_REQUEST: validation or OTP failure
- ACCOUNT_NOT_FOUND: sender or receiver does not exist
- INSUFFICIENT_FUNDS: the sender cannot cover the amount
- CONFLICT: the unit kept conflicting after all retries
- TIMEOUT: an account lock could not be acquired in time
- STORE_UNAVAILABLE: the store failed; nothing was committed

Only CONFLICT is retried internally.
*/
package transfer
