package connect

import pkgstripe "github.com/playabars/playabars-backend/pkg/stripe"

func translateProviderError(err error, op string) error {
	return pkgstripe.TranslateError(err, op)
}

func isNotFound(err error) bool {
	return pkgstripe.IsNotFound(err)
}
