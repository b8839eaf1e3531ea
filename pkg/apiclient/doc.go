// Package apiclient はBGSトラッキングサービスのREST APIを呼び出すクライアントを提供する。
//
// すべてのリクエストに apikey と apiversion ヘッダーを付与する。APIキーは
// 生成時に渡された CredentialSource から呼び出しごとに解決し、解決できない
// 場合はネットワークI/Oを行う前に AuthenticationError を返す。
//
// リトライとバックオフは行わない。各呼び出しは1回だけ試行され、
// 失敗は型付きエラー（RequestError / TransportError / NotFoundError）として
// 呼び出し元に返される。
package apiclient
