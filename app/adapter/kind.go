package adapter

// Kind identifies the rule set used to read one tracker's feed.
type Kind int

const (
	KindDefault Kind = iota
	KindPuTao
	KindFileList
	KindBeyondHD
	KindUnit3D2
	KindUnit3D
	KindTorrentDB
	KindUHDBits
	KindEmpornium
	KindSkyeySnow
	KindHDBits
	KindHDTorrents
	KindHDCity
	KindIPTorrents
	KindMikan
	KindLearnFlakes
	KindAvistaZ
	KindTorrentLeech
	KindFSM
	KindHappyFappy
)

var kindNames = map[Kind]string{
	KindDefault:      "default",
	KindPuTao:        "putao",
	KindFileList:     "filelist",
	KindBeyondHD:     "beyondhd",
	KindUnit3D2:      "unit3d2",
	KindUnit3D:       "unit3d",
	KindTorrentDB:    "torrentdb",
	KindUHDBits:      "uhdbits",
	KindEmpornium:    "empornium",
	KindSkyeySnow:    "skyeysnow",
	KindHDBits:       "hdbits",
	KindHDTorrents:   "hdtorrents",
	KindHDCity:       "hdcity",
	KindIPTorrents:   "iptorrents",
	KindMikan:        "mikan",
	KindLearnFlakes:  "learnflakes",
	KindAvistaZ:      "avistaz",
	KindTorrentLeech: "torrentleech",
	KindFSM:          "fsm",
	KindHappyFappy:   "happyfappy",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// hostKinds maps feed hosts (URL.Host) to their rule set. Hosts not listed
// use KindDefault.
var hostKinds = map[string]Kind{
	"filelist.io":          KindFileList,
	"blutopia.xyz":         KindUnit3D2,
	"jptv.club":            KindUnit3D,
	"monikadesign.uk":      KindUnit3D2,
	"torrentdb.net":        KindTorrentDB,
	"uhdbits.org":          KindUHDBits,
	"www.empornium.is":     KindEmpornium,
	"www.skyey2.com":       KindSkyeySnow,
	"hdbits.org":           KindHDBits,
	"beyond-hd.me":         KindBeyondHD,
	"pt.sjtu.edu.cn":       KindPuTao,
	"hd-torrents.org":      KindHDTorrents,
	"hdcity.leniter.org":   KindHDCity,
	"iptorrents.com":       KindIPTorrents,
	"mikanani.me":          KindMikan,
	"learnflakes.net":      KindLearnFlakes,
	"exoticaz.to":          KindAvistaZ,
	"avistaz.to":           KindAvistaZ,
	"cinemaz.to":           KindAvistaZ,
	"privatehd.to":         KindAvistaZ,
	"rss.torrentleech.org": KindTorrentLeech,
	"nextpt.net":           KindFSM,
	"www.happyfappy.org":   KindHappyFappy,
}

// KindForHost returns the rule set registered for host.
func KindForHost(host string) Kind {
	if kind, ok := hostKinds[host]; ok {
		return kind
	}
	return KindDefault
}
